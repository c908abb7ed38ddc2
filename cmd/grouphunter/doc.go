// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the grouphunter CLI: a proxy-parallel scanner
// and claim bot for a remote group-platform's integer ID namespace.
//
// Usage:
//
//	grouphunter run                Run the scan/claim pipeline
//	grouphunter probe               Locate the highest existing group ID
//	grouphunter measure              Measure the batch/detailed rate limits
//	grouphunter config               Print the effective configuration
package main
