package cache

// LayoutKeyOpts are the layout settings that change a layout result.
type LayoutKeyOpts struct {
	Engine   string  `json:"engine"`
	RankSep  float64 `json:"rank_sep"`
	NodeSep  float64 `json:"node_sep"`
	PortSize float64 `json:"port_size"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the graph hash together with the layout options.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey hashes the layout hash together with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// KeyType returns the prefix of a key produced by a Keyer, for metrics.
func KeyType(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			j := i - 1
			for j >= 0 && key[j] != ':' {
				j--
			}
			return key[j+1 : i]
		}
	}
	return ""
}
