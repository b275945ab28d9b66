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

// Package svm is the optimization core of the Silica JIT: a flat,
// bytecode-style IR with implicit control flow, plus the passes that run
// between lowering and native emission. Control flow is derived on demand
// into a per-function CFG with liveness sets; local value numbering, copy
// propagation and dead-code elimination mutate the stream in place, and
// compaction squeezes the no-ops out at the end while repairing every
// label.
package svm
