// Package sorter reorders a frame's command stream to minimize GPU state
// transitions before dispatch. Finding the true minimum state-change order
// is NP-hard in general; a greedy grouping by pipeline key is the documented,
// sufficient strategy here.
package sorter

import (
	"sort"

	"github.com/spaghettifunk/lumen/engine/renderer/command"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Sort reorders draw commands in place, one stage span at a time. Legality
// constraints:
//
//   - nothing ever moves across a stage boundary;
//   - Clear, Barrier, BindTarget and BindLight commands never move relative
//     to their stage's draws;
//   - reorderable stages (DrawOpaque, PostProcess) are grouped by pipeline
//     key in order of first appearance, with mesh handle as a secondary key
//     for bind locality;
//   - DrawTransparent keeps a stable back-to-front order by depth; key
//     grouping happens only inside equal-depth ties, by way of the sort
//     stability.
func Sort(buf *command.Buffer) {
	cmds := buf.Commands()
	for _, span := range buf.Spans() {
		forEachDrawRun(cmds[span.Start:span.End], func(run []command.Command) {
			switch {
			case span.Kind.Reorderable():
				groupByKey(run)
			case span.Kind == metadata.StageDrawTransparent:
				backToFront(run)
			}
		})
	}
}

// forEachDrawRun invokes fn on every maximal run of consecutive draw
// commands. Non-draw commands act as walls, which is what keeps barriers and
// state commands pinned in place.
func forEachDrawRun(cmds []command.Command, fn func(run []command.Command)) {
	start := -1
	for i := range cmds {
		if cmds[i].Op == command.OpDraw {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fn(cmds[start:i])
			start = -1
		}
	}
	if start >= 0 {
		fn(cmds[start:])
	}
}

// groupByKey gathers equal pipeline keys contiguously, keeping buckets in
// order of first appearance so the result is deterministic for a given
// input stream.
func groupByKey(run []command.Command) {
	rank := make(map[metadata.PipelineKey]int, len(run))
	for i := range run {
		if _, ok := rank[run[i].Key]; !ok {
			rank[run[i].Key] = len(rank)
		}
	}
	sort.SliceStable(run, func(i, j int) bool {
		ri, rj := rank[run[i].Key], rank[run[j].Key]
		if ri != rj {
			return ri < rj
		}
		return run[i].Mesh < run[j].Mesh
	})
}

// backToFront orders draws by descending camera distance. The sort is stable
// so equal depths keep their emission order.
func backToFront(run []command.Command) {
	sort.SliceStable(run, func(i, j int) bool {
		return run[i].Depth > run[j].Depth
	})
}
