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

type Pass interface {
	Apply(*Func)
}

type _PassDescriptor struct {
	pass Pass
	desc string
}

var _passes = [...]_PassDescriptor{
	{desc: "Local Value Numbering", pass: PassValnum{}},
	{desc: "Copy Propagation", pass: PassCopyProp{}},
	{desc: "Dead Code Elimination", pass: PassDeadCode{}},
	{desc: "Stream Compaction", pass: PassCompact{}},
}

// Optimize runs the standard pass pipeline over one function. Functions
// are independent; the surrounding pipeline may optimize many of them
// concurrently as long as each Func is handed to exactly one worker.
func Optimize(fn *Func) {
	debugDump("lowered", fn)
	for _, p := range _passes {
		p.pass.Apply(fn)
		debugDump(p.desc, fn)
	}
}
