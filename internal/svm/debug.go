/*
 * Copyright 2024 Silica Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package svm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/oleiade/lane"
)

var _DebugOpt = os.Getenv("SILICA_DEBUG_OPT") != ""

func debugDump(desc string, fn *Func) {
	if _DebugOpt {
		fmt.Fprintf(os.Stderr, "=== %s: after %s ===\n%s\n", fn.Name, desc, fn.Disassemble())
	}
}

// DumpLiveness prints the per-block liveness sets to stderr.
func DumpLiveness(p *CFG) {
	spew.Config.SortKeys = true
	for bi := range p.Blocks {
		bb := &p.Blocks[bi]
		fmt.Fprintf(os.Stderr, "bb_%d [%d, %d]:\n", bb.Id, bb.First, bb.Last)
		spew.Fdump(os.Stderr, map[string]string{
			"livein":  bb.LiveIn.String(),
			"liveout": bb.LiveOut.String(),
			"varkill": bb.VarKill.String(),
		})
	}
}

// DumpDot writes the CFG in Graphviz format, one node per reachable block.
func DumpDot(w io.Writer, p *CFG) {
	buf := []string{
		"digraph CFG {",
		`    node [ fontname = "Fira Code" shape = "box" ]`,
		`    START [ shape = "circle" ]`,
	}
	if len(p.Blocks) != 0 {
		buf = append(buf, "    START -> bb_0")
	}

	/* breadth-first over the out edges */
	q := lane.NewQueue()
	seen := make(map[int]bool)
	if len(p.Blocks) != 0 {
		seen[0] = true
		q.Enqueue(0)
	}
	for !q.Empty() {
		bb := &p.Blocks[q.Dequeue().(int)]
		lines := make([]string, 0, bb.Last-bb.First+1)
		for i := bb.First; i <= bb.Last; i++ {
			lines = append(lines, p.fn.Ins[i].Disassemble())
		}
		buf = append(buf, fmt.Sprintf(
			`    bb_%d [ label = "bb_%d [%d, %d]\n%s" ]`,
			bb.Id, bb.Id, bb.First, bb.Last,
			strings.Join(lines, `\n`),
		))
		for i := 0; i < bb.Out.Len(); i++ {
			to := bb.Out.At(i)
			buf = append(buf, fmt.Sprintf("    bb_%d -> bb_%d", bb.Id, to))
			if !seen[to] {
				seen[to] = true
				q.Enqueue(to)
			}
		}
	}

	buf = append(buf, "}")
	fmt.Fprintln(w, strings.Join(buf, "\n"))
}
