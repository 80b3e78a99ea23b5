package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

func newResolveCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve <domain> <term>",
		Short: "Resolve a single term against one vocabulary",
		Long: fmt.Sprintf(`Looks up one term the same way enrich does and prints the result.

Domains: %s`, joinDomains()),
		Example: `  mods-enricher resolve role creator
  mods-enricher resolve name "Alciati, Andrea" --format json
  mods-enricher resolve subject "Emblems--Poland"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := vocabulary.ParseDomain(args[0])
			if err != nil {
				return err
			}

			s, err := buildStack(*configPath, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.resolver.Resolve(cmd.Context(), domain, strings.Join(args[1:], " "))
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(res)
			case "text":
				fmt.Fprintf(out, "Query:   %s\n", res.Query)
				fmt.Fprintf(out, "Outcome: %s (%s)\n", res.Outcome(), res.Method)
				fmt.Fprintf(out, "Matches: %d\n", res.MatchCount)
				if res.Resolved {
					fmt.Fprintf(out, "URI:     %s\n", res.URI)
					fmt.Fprintf(out, "Auth:    %s\n", res.AuthorityURI)
				}
				if res.DisplayForm != "" {
					fmt.Fprintf(out, "Display: %s\n", res.DisplayForm)
				}
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text or json)")

	return cmd
}

func joinDomains() string {
	domains := vocabulary.DefaultRegistry().Domains()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
