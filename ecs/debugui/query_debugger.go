package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

const queryDebuggerMaxRows = 50

type QueryDebuggerCache struct {
	kinds []ecs.Kind
}

// QueryMatch is one entity returned by the debugger's query.
type QueryMatch struct {
	ID    ecs.EntityId
	Kinds []string
}

func NewQueryDebuggerComponent() *QueryDebuggerComponent {
	return &QueryDebuggerComponent{
		selectedKinds: make(map[ecs.Kind]bool),
		cache:         &QueryDebuggerCache{},
	}
}

func (qd *QueryDebuggerComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	qd.refreshKinds(storage)

	imgui.Text("Select Kinds (matches any):")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedKinds = make(map[ecs.Kind]bool)
	}

	for _, kind := range qd.cache.kinds {
		selected := qd.selectedKinds[kind]
		if imgui.Checkbox(string(kind), &selected) {
			qd.Toggle(kind, selected)
		}
	}

	imgui.Separator()

	query := qd.Query()
	if query.Len() == 0 {
		imgui.Text("No kinds selected")
		imgui.End()
		return
	}

	matches, total := qd.Matches(storage, queryDebuggerMaxRows)
	imgui.Text(fmt.Sprintf("Query: %s", query))
	imgui.Text(fmt.Sprintf("Matching Entities: %d", total))

	if imgui.TreeNodeStr("Matches") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryMatchTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("All Kinds")
			imgui.TableHeadersRow()

			for _, m := range matches {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(m.ID.String())

				imgui.TableSetColumnIndex(1)
				imgui.Text(strings.Join(m.Kinds, ", "))
			}

			imgui.EndTable()
		}
		if total > len(matches) {
			imgui.Text(fmt.Sprintf("... and %d more", total-len(matches)))
		}
		imgui.TreePop()
	}

	imgui.End()
}

// Toggle adds or removes kind from the query.
func (qd *QueryDebuggerComponent) Toggle(kind ecs.Kind, selected bool) {
	if selected {
		qd.selectedKinds[kind] = true
	} else {
		delete(qd.selectedKinds, kind)
	}
}

// Query builds the query from the selected kinds.
func (qd *QueryDebuggerComponent) Query() ecs.Query {
	kinds := make([]ecs.Kind, 0, len(qd.selectedKinds))
	for kind := range qd.selectedKinds {
		kinds = append(kinds, kind)
	}
	return ecs.NewQuery(kinds...)
}

// Matches runs the query and returns up to limit matches in store order
// along with the total match count.
func (qd *QueryDebuggerComponent) Matches(storage *ecs.Storage, limit int) ([]QueryMatch, int) {
	var matches []QueryMatch
	total := 0
	for id, components := range storage.Match(qd.Query()) {
		total++
		if len(matches) >= limit {
			continue
		}
		kinds := make([]string, len(components))
		for i, c := range components {
			kinds[i] = string(c.Kind())
		}
		matches = append(matches, QueryMatch{ID: id, Kinds: kinds})
	}
	return matches, total
}

// Kinds returns the kinds currently present in the store, sorted.
func (qd *QueryDebuggerComponent) Kinds(storage *ecs.Storage) []ecs.Kind {
	qd.refreshKinds(storage)
	return qd.cache.kinds
}

func (qd *QueryDebuggerComponent) refreshKinds(storage *ecs.Storage) {
	breakdown := storage.CollectStats().KindBreakdown
	qd.cache.kinds = qd.cache.kinds[:0]
	for _, ks := range breakdown {
		qd.cache.kinds = append(qd.cache.kinds, ks.Kind)
	}
}
