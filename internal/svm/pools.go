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
	"sync"
)

var (
	cfgPool     sync.Pool
	builderPool sync.Pool
)

func newCFG(fn *Func, nb int) (p *CFG) {
	if v := cfgPool.Get(); v == nil {
		p = new(CFG)
	} else {
		p = v.(*CFG)
	}
	return resetCFG(p, fn, nb)
}

func freeCFG(p *CFG) {
	p.fn = nil
	cfgPool.Put(p)
}

func resetCFG(p *CFG, fn *Func, nb int) *CFG {
	p.fn = fn
	if cap(p.Blocks) >= nb {
		p.Blocks = p.Blocks[:nb]
		for i := range p.Blocks {
			p.Blocks[i] = BasicBlock{}
		}
	} else {
		p.Blocks = make([]BasicBlock, nb)
	}
	return p
}

func newBuilder() (p *Builder) {
	if v := builderPool.Get(); v == nil {
		p = allocBuilder()
	} else {
		p = resetBuilder(v.(*Builder))
	}
	return
}

func freeBuilder(p *Builder) {
	builderPool.Put(p)
}

func allocBuilder() (p *Builder) {
	p = new(Builder)
	p.refs = make(map[string]int, 64)
	return
}

func resetBuilder(p *Builder) *Builder {
	p.ins = p.ins[:0]
	p.pends = p.pends[:0]
	for k := range p.refs {
		delete(p.refs, k)
	}
	return p
}
