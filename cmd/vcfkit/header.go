package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

// headerSummary is the YAML view of a parsed header.
type headerSummary struct {
	Meta    map[string]string `yaml:"meta"`
	Info    []fieldSummary    `yaml:"info"`
	Format  []fieldSummary    `yaml:"format"`
	Filter  []filterSummary   `yaml:"filter"`
	Samples []string          `yaml:"samples"`
}

type fieldSummary struct {
	ID          string            `yaml:"id"`
	Number      string            `yaml:"number"`
	Type        string            `yaml:"type"`
	Description string            `yaml:"description"`
	Extra       map[string]string `yaml:"extra,omitempty"`
}

type filterSummary struct {
	ID          string            `yaml:"id"`
	Description string            `yaml:"description"`
	Extra       map[string]string `yaml:"extra,omitempty"`
}

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header <input-file>",
		Short: "Print the typed header schema of a VCF file",
		Long:  "Parse the header of a VCF file (use '-' for stdin) and print its declarations as YAML.",
		Example: `  vcfkit header input.vcf
  cat input.vcf | vcfkit header -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := vcf.Open(args[0])
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w (check that the file path is correct)", err)
				}
				return err
			}
			defer r.Close()
			r.SetLogger(logger)

			return writeHeaderSummary(cmd.OutOrStdout(), r.Schema())
		},
	}
}

func summarizeSchema(s *vcf.Schema) headerSummary {
	sum := headerSummary{
		Meta:    make(map[string]string),
		Samples: s.Samples(),
	}
	for _, key := range s.MetaKeys() {
		sum.Meta[key], _ = s.Meta(key)
	}
	for _, id := range s.InfoIDs() {
		d, _ := s.Info(id)
		sum.Info = append(sum.Info, summarizeField(d.FieldDef))
	}
	for _, id := range s.FormatIDs() {
		d, _ := s.Format(id)
		sum.Format = append(sum.Format, summarizeField(d.FieldDef))
	}
	for _, id := range s.FilterIDs() {
		d, _ := s.Filter(id)
		sum.Filter = append(sum.Filter, filterSummary{ID: d.ID, Description: d.Description, Extra: extraMap(d.Extra)})
	}
	return sum
}

func summarizeField(def vcf.FieldDef) fieldSummary {
	return fieldSummary{
		ID:          def.ID,
		Number:      def.Number.String(),
		Type:        def.Type.String(),
		Description: def.Description,
		Extra:       extraMap(def.Extra),
	}
}

func extraMap(attrs []vcf.Attribute) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func writeHeaderSummary(w io.Writer, s *vcf.Schema) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summarizeSchema(s)); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	return enc.Close()
}
