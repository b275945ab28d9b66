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
	"math/bits"
)

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func isPow2(v int64) bool {
	return v > 0 && v&(v-1) == 0
}

func log2i(v int64) int64 {
	return int64(bits.TrailingZeros64(uint64(v)))
}

func fitsWidth(v int64, w uint) bool {
	if w == 64 {
		return true
	}
	return v >= -(int64(1)<<(w-1)) && v < int64(1)<<(w-1)
}

func isCommutative(op OpCode) bool {
	switch op {
	case OP_add, OP_mul, OP_and, OP_or:
		return true
	default:
		return false
	}
}
