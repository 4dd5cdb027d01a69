/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements song and chart persistence for chartmaker.
// It reads documents with BOM sniffing, writes them transactionally with timestamped backups
// in <song dir>/backups, and resolves chart files next to their song index (<Target>.jac).
// It also manages the per-user recent-songs library, a SQLite database holding the last opened
// songs and a small cache of cover icon thumbnails. The library is disposable and rebuilt on demand.
package storage
