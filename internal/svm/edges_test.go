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
	"testing"

	"github.com/stretchr/testify/require"
)

func edges(l *EdgeList) []int {
	s := make([]int, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		s = append(s, l.At(i))
	}
	return s
}

func TestEdgeList_InlineToSpill(t *testing.T) {
	var l EdgeList
	for _, bb := range []int{7, 3, 5, 1} {
		l.Add(bb)
	}
	require.Equal(t, 4, l.Len())
	require.Equal(t, []int{7, 3, 5, 1}, edges(&l))

	/* duplicates are ignored in both storage modes */
	l.Add(3)
	require.Equal(t, 4, l.Len())
	l.Add(9)
	require.Equal(t, 5, l.Len())
	require.Equal(t, []int{7, 3, 5, 1, 9}, edges(&l))
	l.Add(7)
	require.Equal(t, 5, l.Len())
	l.Add(2)
	require.Equal(t, []int{7, 3, 5, 1, 9, 2}, edges(&l))
}

func TestEdgeList_AtOutOfRange(t *testing.T) {
	var l EdgeList
	l.Add(1)
	require.Panics(t, func() { l.At(1) })
	require.Panics(t, func() { l.At(-1) })
}

func TestEdgeList_String(t *testing.T) {
	var l EdgeList
	require.Equal(t, "{}", l.String())
	l.Add(0)
	l.Add(2)
	require.Equal(t, "{0, 2}", l.String())
}
