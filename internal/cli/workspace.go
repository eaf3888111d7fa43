package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// workspaceCommand groups the saved-workspace subcommands.
func (c *CLI) workspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage saved workspaces",
	}
	cmd.AddCommand(c.workspaceListCommand())
	cmd.AddCommand(c.workspaceShowCommand())
	cmd.AddCommand(c.workspaceDeleteCommand())
	return cmd
}

func (c *CLI) workspaceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved workspaces, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No workspaces yet")
				printNextStep("Create one", appName+" import ... --save <name>")
				return nil
			}
			fmt.Println(workspaceTable(list, time.Now()))
			return nil
		},
	}
}

func (c *CLI) workspaceShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a workspace summary",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: c.completeWorkspaceIDs(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			ws, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render(ws.Name))
			printKeyValue("id", ws.ID)
			printKeyValue("created", ws.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("updated", ws.UpdatedAt.Local().Format(time.DateTime))
			printKeyValue("vessels", fmt.Sprint(len(ws.Input.Vessels)))
			printKeyValue("nodes", fmt.Sprint(len(ws.Graph.Nodes)))
			printKeyValue("edges", fmt.Sprint(len(ws.Graph.Edges)))
			return nil
		},
	}
}

func (c *CLI) workspaceDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: c.completeWorkspaceIDs(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workspace.ValidateID(args[0]); err != nil {
				return err
			}
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted workspace %s", args[0])
			return nil
		},
	}
}

// workspaceTable renders summaries as a bordered table.
func workspaceTable(list []workspace.Summary, now time.Time) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{s.Name, s.ID, formatRelativeTime(s.UpdatedAt, now)}
	}
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "ID", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			default:
				return StyleDim
			}
		}).
		Render()
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
