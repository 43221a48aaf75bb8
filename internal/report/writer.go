// Package report writes realm descriptors as YAML for consumers outside the
// process, e.g. a test suite reading the issuer URL of a provisioned realm.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
)

// WriterOptions configures the writer
type WriterOptions struct {
	OutputFile string
	OutputDir  string

	// Stdout receives the documents when no file or directory is set
	Stdout io.Writer
}

// Writer writes realm descriptors to output
type Writer struct {
	opts WriterOptions
}

// NewWriter creates a new writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Writer{opts: opts}
}

// Write writes realms to the configured output
func (w *Writer) Write(realms []*keycloakv1beta1.Realm) error {
	if w.opts.OutputDir != "" {
		return w.writeToDirectory(realms)
	}

	if w.opts.OutputFile != "" {
		return w.writeToFile(realms)
	}

	return writeDocuments(w.opts.Stdout, realms)
}

func (w *Writer) writeToFile(realms []*keycloakv1beta1.Realm) error {
	f, err := os.Create(w.opts.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := writeDocuments(f, realms); err != nil {
		return err
	}
	return f.Close()
}

// writeDocuments writes one YAML document per realm, separated by "---"
func writeDocuments(out io.Writer, realms []*keycloakv1beta1.Realm) error {
	for i, realm := range realms {
		data, err := yaml.Marshal(realm)
		if err != nil {
			return fmt.Errorf("failed to marshal realm %s: %w", realm.Name, err)
		}

		if i > 0 {
			if _, err := io.WriteString(out, "---\n"); err != nil {
				return err
			}
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) writeToDirectory(realms []*keycloakv1beta1.Realm) error {
	if err := os.MkdirAll(w.opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, realm := range realms {
		data, err := yaml.Marshal(realm)
		if err != nil {
			return fmt.Errorf("failed to marshal realm %s: %w", realm.Name, err)
		}

		filename := filepath.Join(w.opts.OutputDir, realm.Name+".yaml")
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
	}

	return nil
}

// Read parses descriptors written by Write to a single file or stream.
func Read(data []byte) ([]*keycloakv1beta1.Realm, error) {
	var realms []*keycloakv1beta1.Realm
	for i, doc := range splitDocuments(data) {
		realm := &keycloakv1beta1.Realm{}
		if err := yaml.UnmarshalStrict(doc, realm); err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", i, err)
		}
		realms = append(realms, realm)
	}
	return realms, nil
}

func splitDocuments(data []byte) [][]byte {
	var docs [][]byte
	for _, doc := range bytes.Split(data, []byte("---\n")) {
		if len(bytes.TrimSpace(doc)) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs
}
