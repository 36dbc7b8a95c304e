package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

type KindViewerCache struct {
	kinds         []ecs.KindStats
	sortColumn    int
	sortAscending bool
}

func NewKindViewerComponent() *KindViewerComponent {
	return &KindViewerComponent{
		cache: &KindViewerCache{
			sortColumn:    1,
			sortAscending: false,
		},
	}
}

// Render draws one row per kind and returns the kind clicked this frame.
func (kv *KindViewerComponent) Render(storage *ecs.Storage) *ecs.Kind {
	if !imgui.BeginV("Kind Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return nil
	}

	kv.refresh(storage)

	maxEntityCount := 0
	for _, ks := range kv.cache.kinds {
		maxEntityCount = max(maxEntityCount, ks.EntityCount)
	}

	var clicked *ecs.Kind

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("KindTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("Entities")
		imgui.TableSetupColumn("Components")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			kv.cache.sortColumn = int(spec.ColumnIndex())
			kv.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			kv.sortKinds()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, ks := range kv.cache.kinds {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := kv.selectedKind != nil && *kv.selectedKind == ks.Kind
			if imgui.SelectableBoolV(string(ks.Kind), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				kind := ks.Kind
				clicked = &kind
				kv.selectedKind = &kind
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", ks.EntityCount))

			if maxEntityCount > 0 {
				barWidth := float32(ks.EntityCount) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", ks.ComponentCount))
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}

func (kv *KindViewerComponent) refresh(storage *ecs.Storage) {
	kv.cache.kinds = storage.CollectStats().KindBreakdown
	kv.sortKinds()
}

// Rows returns the kinds in display order after a refresh from storage.
func (kv *KindViewerComponent) Rows(storage *ecs.Storage) []ecs.KindStats {
	kv.refresh(storage)
	return kv.cache.kinds
}

func (kv *KindViewerComponent) sortKinds() {
	less := func(a, b ecs.KindStats) bool {
		switch kv.cache.sortColumn {
		case 0:
			return a.Kind < b.Kind
		case 2:
			return a.ComponentCount < b.ComponentCount
		default:
			return a.EntityCount < b.EntityCount
		}
	}

	sort.SliceStable(kv.cache.kinds, func(i, j int) bool {
		a, b := kv.cache.kinds[i], kv.cache.kinds[j]
		if !kv.cache.sortAscending {
			a, b = b, a
		}
		return less(a, b)
	})
}
