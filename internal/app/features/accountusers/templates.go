// internal/app/features/accountusers/templates.go
package accountusers

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "accountusers",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
