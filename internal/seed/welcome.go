// Package seed creates the welcome tree for a user.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	docsysSvc "motion/internal/domain/services/docsystem"
)

//go:embed welcome.yaml
var welcomeYAML []byte

// Node is one document of a seed tree
type Node struct {
	Title     string `yaml:"title"`
	Icon      string `yaml:"icon"`
	Content   string `yaml:"content"`
	Published bool   `yaml:"published"`
	Children  []Node `yaml:"children"`
}

// WelcomeTree returns the embedded welcome tree
func WelcomeTree() ([]Node, error) {
	return ParseTree(welcomeYAML)
}

// ParseTree decodes a YAML seed tree
func ParseTree(data []byte) ([]Node, error) {
	var nodes []Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse seed tree: %w", err)
	}
	return nodes, nil
}

// Seeder creates seed trees through the document service, so seeded data
// obeys the same validation as API writes.
type Seeder struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(docService docsysSvc.DocumentService, logger *slog.Logger) *Seeder {
	return &Seeder{
		docService: docService,
		logger:     logger,
	}
}

// Seed creates nodes for userID and returns how many documents were created
func (s *Seeder) Seed(ctx context.Context, userID string, nodes []Node) (int, error) {
	return s.seedLevel(ctx, userID, nil, nodes)
}

func (s *Seeder) seedLevel(ctx context.Context, userID string, parent *string, nodes []Node) (int, error) {
	created := 0
	for _, node := range nodes {
		id, err := s.docService.CreateDocument(ctx, userID, &docsysSvc.CreateDocumentRequest{
			Title:          node.Title,
			ParentDocument: parent,
		})
		if err != nil {
			return created, fmt.Errorf("create %q: %w", node.Title, err)
		}
		created++

		update := &docsysSvc.UpdateDocumentRequest{}
		if node.Icon != "" {
			update.Icon = &node.Icon
		}
		if node.Content != "" {
			update.Content = &node.Content
		}
		if node.Published {
			update.IsPublished = &node.Published
		}
		if update.Icon != nil || update.Content != nil || update.IsPublished != nil {
			if _, err := s.docService.UpdateDocument(ctx, userID, id, update); err != nil {
				return created, fmt.Errorf("update %q: %w", node.Title, err)
			}
		}

		s.logger.Debug("seeded document", "id", id, "title", node.Title)

		n, err := s.seedLevel(ctx, userID, &id, node.Children)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
