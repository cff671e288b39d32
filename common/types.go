/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package common holds primitives shared across this module's sketch
// families. Today that is just the total-order abstraction used by the
// mrl package; it is kept separate from mrl itself so a future sketch
// family in this module can share it without importing mrl.
package common

// CompareFn reports whether a sorts strictly before b. Implementations
// must define a total order: irreflexive, transitive, and consistent
// across repeated calls, including after a value has been encoded and
// decoded on a different worker.
type CompareFn[T any] func(a, b T) bool
