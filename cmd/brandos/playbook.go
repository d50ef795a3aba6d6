package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jonathan/brandos/internal/playbook"
)

var playbookCmd = &cobra.Command{
	Use:   "playbook <brand>",
	Short: "Print a brand's playbook from its latest analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybook,
}

var (
	playbookRaw   bool
	playbookOut   string
	playbookWidth int
)

func init() {
	playbookCmd.Flags().BoolVar(&playbookRaw, "raw", false, "Print markdown without terminal styling")
	playbookCmd.Flags().StringVarP(&playbookOut, "out", "o", "", "Write the markdown to a file instead")
	playbookCmd.Flags().IntVar(&playbookWidth, "width", 100, "Word wrap width for styled output")
	rootCmd.AddCommand(playbookCmd)
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, appOptions{needDB: true, quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	brand, err := a.lookupBrand(ctx, args[0])
	if err != nil {
		return err
	}
	report, err := a.db.LatestAnalysis(ctx, brand.ID)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("brand %q has no analysis yet", brand.Name)
	}

	md := playbook.Generate(report)
	if playbookOut != "" || playbookRaw {
		return writeFile(cmd, playbookOut, []byte(md))
	}
	out, err := renderMarkdown(md, playbookWidth)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// renderMarkdown styles markdown for the terminal.
func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
