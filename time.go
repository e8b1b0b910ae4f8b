// Copyright 2020 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package msesegment

import (
	"math/big"
	"time"
)

// Seconds converts an exact rational number of seconds to floating point.
func Seconds(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// ToDuration converts a rational number of seconds to a time.Duration,
// truncated toward zero at nanosecond precision.
func ToDuration(r *big.Rat) time.Duration {
	if r == nil {
		return 0
	}
	ns := new(big.Int).Mul(r.Num(), big.NewInt(int64(time.Second)))
	ns.Quo(ns, r.Denom())
	return time.Duration(ns.Int64())
}
