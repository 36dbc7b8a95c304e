package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

// Rows are rebuilt when the entity count changes or after this many frames,
// so component additions eventually show up too.
const entityBrowserRefreshFrames = 30

type EntityInfo struct {
	ID             ecs.EntityId
	Position       int
	Kinds          []string
	ComponentCount int
}

type EntityBrowserCache struct {
	entities        []EntityInfo
	lastEntityCount int
	framesSinceLoad int
	sortColumn      int
	sortAscending   bool
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) *EntityBrowserComponent {
	if maxEntitiesPerPage <= 0 {
		maxEntitiesPerPage = 100
	}
	return &EntityBrowserComponent{
		cache: &EntityBrowserCache{
			sortColumn:    0,
			sortAscending: true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (eb *EntityBrowserComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(storage)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterKind = nil
		eb.currentPage = 0
	}
	if eb.filterKind != nil {
		imgui.Text(fmt.Sprintf("Kind: %s", *eb.filterKind))
	}

	filteredEntities := eb.getFilteredEntities()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Order")
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Kinds")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			eb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
			filteredEntities = eb.getFilteredEntities()
		}

		startIdx, endIdx := eb.pageBounds(len(filteredEntities))
		for i := startIdx; i < endIdx; i++ {
			entity := filteredEntities[i]
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.Position))

			imgui.TableNextColumn()
			isSelected := eb.selectedEntityId == entity.ID
			if imgui.SelectableBoolV(entity.ID.String(), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selectedEntityId = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.Kinds, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.ComponentCount))
		}

		imgui.EndTable()
	}

	if len(filteredEntities) > eb.maxEntitiesPerPage {
		totalPages := eb.totalPages(len(filteredEntities))
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filteredEntities)))
	}

	imgui.End()
}

func (eb *EntityBrowserComponent) totalPages(n int) int {
	return (n + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
}

func (eb *EntityBrowserComponent) pageBounds(n int) (int, int) {
	if pages := eb.totalPages(n); eb.currentPage >= pages {
		eb.currentPage = max(pages-1, 0)
	}
	start := eb.currentPage * eb.maxEntitiesPerPage
	end := min(start+eb.maxEntitiesPerPage, n)
	return start, end
}

func (eb *EntityBrowserComponent) rebuildCacheIfNeeded(storage *ecs.Storage) {
	eb.cache.framesSinceLoad++
	if eb.cache.entities == nil ||
		eb.cache.lastEntityCount != storage.Len() ||
		eb.cache.framesSinceLoad >= entityBrowserRefreshFrames {
		eb.rebuildCache(storage)
	}
}

func (eb *EntityBrowserComponent) rebuildCache(storage *ecs.Storage) {
	ids := storage.Entities()
	eb.cache.entities = make([]EntityInfo, 0, len(ids))
	eb.cache.lastEntityCount = len(ids)
	eb.cache.framesSinceLoad = 0

	for pos, id := range ids {
		components := storage.Components(id)
		kinds := make([]string, len(components))
		for i, c := range components {
			kinds[i] = string(c.Kind())
		}

		eb.cache.entities = append(eb.cache.entities, EntityInfo{
			ID:             id,
			Position:       pos,
			Kinds:          kinds,
			ComponentCount: len(components),
		})
	}

	eb.sortEntities()
}

func (eb *EntityBrowserComponent) sortEntities() {
	less := func(a, b EntityInfo) bool {
		switch eb.cache.sortColumn {
		case 1:
			return a.ID < b.ID
		case 2:
			return strings.Join(a.Kinds, ",") < strings.Join(b.Kinds, ",")
		case 3:
			return a.ComponentCount < b.ComponentCount
		default:
			return a.Position < b.Position
		}
	}

	sort.SliceStable(eb.cache.entities, func(i, j int) bool {
		a, b := eb.cache.entities[i], eb.cache.entities[j]
		if !eb.cache.sortAscending {
			a, b = b, a
		}
		return less(a, b)
	})
}

func (eb *EntityBrowserComponent) getFilteredEntities() []EntityInfo {
	if eb.filterText == "" && eb.filterKind == nil {
		return eb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.cache.entities))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.cache.entities {
		if eb.filterKind != nil && !containsKind(entity.Kinds, *eb.filterKind) {
			continue
		}

		if eb.filterText != "" {
			kindsStr := strings.ToLower(strings.Join(entity.Kinds, " "))
			if !strings.Contains(entity.ID.String(), filterLower) &&
				!strings.Contains(kindsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

func containsKind(kinds []string, kind ecs.Kind) bool {
	for _, k := range kinds {
		if k == string(kind) {
			return true
		}
	}
	return false
}

// SetFilter narrows the table to entities whose id or kinds contain text.
func (eb *EntityBrowserComponent) SetFilter(text string) {
	eb.filterText = text
	eb.currentPage = 0
}

// SetKindFilter narrows the table to entities carrying kind. Nil clears it.
func (eb *EntityBrowserComponent) SetKindFilter(kind *ecs.Kind) {
	eb.filterKind = kind
	eb.currentPage = 0
}

// Refresh reloads the rows from storage.
func (eb *EntityBrowserComponent) Refresh(storage *ecs.Storage) {
	eb.rebuildCache(storage)
}

// Visible returns the rows on the current page after filtering.
func (eb *EntityBrowserComponent) Visible() []EntityInfo {
	filtered := eb.getFilteredEntities()
	start, end := eb.pageBounds(len(filtered))
	return filtered[start:end]
}

// NextPage advances one page if there is one.
func (eb *EntityBrowserComponent) NextPage() {
	if eb.currentPage < eb.totalPages(len(eb.getFilteredEntities()))-1 {
		eb.currentPage++
	}
}

func (eb *EntityBrowserComponent) GetSelectedEntity() ecs.EntityId {
	return eb.selectedEntityId
}

func (eb *EntityBrowserComponent) Select(id ecs.EntityId) {
	eb.selectedEntityId = id
}
