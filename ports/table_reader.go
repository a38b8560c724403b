package ports

import (
	"context"

	"prowler/domain/interaction"
)

// TableReader loads screens and profile catalogues from files.
type TableReader interface {
	// ReadInteractions loads an interaction table. Rows that carry a PSS
	// column come back scored.
	ReadInteractions(ctx context.Context, path string) (interaction.Table, error)

	// ReadCatalogue loads an entity -> profile catalogue.
	ReadCatalogue(ctx context.Context, path string) (interaction.Catalogue, error)
}
