// Package selection keeps the selected document and image display mode in
// step with the filtered view and with navigation history.
package selection

import (
	"log/slog"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/query"
)

// ImageMode controls how the selected document's image is displayed
type ImageMode string

const (
	ImageFit    ImageMode = "fit"
	ImageActual ImageMode = "actual"
)

// Toggle returns the other mode
func (m ImageMode) Toggle() ImageMode {
	if m == ImageFit {
		return ImageActual
	}
	return ImageFit
}

// ViewState is the selection owned by a Controller. An empty SelectedID
// means nothing is selected.
type ViewState struct {
	SelectedID string
	ImageMode  ImageMode
}

// View is what a renderer needs to draw the current state.
type View struct {
	Documents  []models.Document
	Selected   *models.Document
	ImageMode  ImageMode
	Query      string
	Category   string
	Provenance string
}

// Count returns the size of the visible set
func (v View) Count() int {
	return len(v.Documents)
}

// Found reports whether a document is selected
func (v View) Found() bool {
	return v.Selected != nil
}

// Controller reconciles the selection with the visible documents. It is not
// safe for concurrent use; drive it from one goroutine.
type Controller struct {
	catalog  *models.Catalog
	docs     []models.Document
	nav      Navigator
	state    ViewState
	query    string
	category string
	last     View

	render      func(View)
	unsubscribe func()
}

// Option customises a Controller
type Option func(*Controller)

// WithRenderer calls fn with every View the controller produces, including
// those triggered by navigation events.
func WithRenderer(fn func(View)) Option {
	return func(c *Controller) {
		c.render = fn
	}
}

// New creates a controller over catalog, sorting its documents once. The
// initial selection is read from nav. Call Render to produce the first View.
func New(catalog *models.Catalog, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		docs:    query.Sort(catalog.Documents),
		nav:     nav,
		state:   ViewState{ImageMode: ImageFit},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.SelectedID, _ = nav.Read()
	c.unsubscribe = nav.Subscribe(func() {
		c.OnNavigate()
	})
	return c
}

// Close stops listening for navigation events
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// State returns the current selection
func (c *Controller) State() ViewState {
	return c.state
}

// Documents returns the full catalog in display order
func (c *Controller) Documents() []models.Document {
	return c.docs
}

// Categories lists the catalog's category options
func (c *Controller) Categories() []string {
	return query.Categories(c.docs)
}

// View returns the last View produced
func (c *Controller) View() View {
	return c.last
}

// Render reconciles against the current filters and returns the View
func (c *Controller) Render() View {
	return c.reconcile()
}

// OnFilterChanged applies a new query and category. A selection that drops
// out of the visible set moves to the first visible document, rewriting the
// current history entry rather than adding one.
func (c *Controller) OnFilterChanged(q, category string) View {
	c.query = q
	c.category = category
	return c.reconcile()
}

// OnExplicitSelect selects id on the user's behalf and records a new history
// entry for it. An empty id is ignored.
func (c *Controller) OnExplicitSelect(id string) View {
	if id == "" {
		return c.last
	}
	c.state.SelectedID = id
	c.state.ImageMode = ImageFit
	c.nav.Push(id)
	return c.reconcile()
}

// OnToggleImageMode flips between fit and actual size
func (c *Controller) OnToggleImageMode() View {
	c.state.ImageMode = c.state.ImageMode.Toggle()
	return c.reconcile()
}

// OnNavigate re-reads the selection after a back/forward event. Filters are
// left as they are.
func (c *Controller) OnNavigate() View {
	c.state.SelectedID, _ = c.nav.Read()
	c.state.ImageMode = ImageFit
	return c.reconcile()
}

func (c *Controller) reconcile() View {
	visible := query.Filter(c.docs, c.query, c.category)

	selected := indexOf(visible, c.state.SelectedID)
	if selected < 0 {
		previous := c.state.SelectedID
		c.state.SelectedID = ""
		for i := range visible {
			if visible[i].ID != "" {
				selected = i
				c.state.SelectedID = visible[i].ID
				break
			}
		}
		if c.state.SelectedID != "" {
			c.nav.Replace(c.state.SelectedID)
		}
		if previous != c.state.SelectedID {
			slog.Debug("Selection reconciled", "from", previous, "to", c.state.SelectedID, "visible", len(visible))
		}
	}

	view := View{
		Documents:  visible,
		ImageMode:  c.state.ImageMode,
		Query:      c.query,
		Category:   c.category,
		Provenance: c.catalog.Provenance(),
	}
	if selected >= 0 {
		view.Selected = &visible[selected]
	}
	c.last = view
	if c.render != nil {
		c.render(view)
	}
	return view
}

func indexOf(docs []models.Document, id string) int {
	if id == "" {
		return -1
	}
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}
