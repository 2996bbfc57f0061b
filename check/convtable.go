// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package check

import (
	"math"

	"github.com/loom-lang/loomc/ast"
)

// Unreachable marks a conversion as impossible, realizing
// original_source's MAX_CONV sentinel (spec §4.3, SPEC_FULL §6.3).
const Unreachable = math.MaxInt32

// ConvRow is one entry of the curated conversion-function table
// (spec §4.3 "A curated function table enumerates legal
// conversions"). The table is data, not code, mirroring the
// teacher's expr/builtin.go table-of-builtins-with-arity style.
type ConvRow struct {
	Source, Target ast.Kind
	Backend        string
	Cost           int
}

// ConvTable enumerates every legal scalar conversion and its cost,
// grounded on original_source/src/functions.cpp's conversion table.
var ConvTable = []ConvRow{
	{ast.KByte, ast.KInt, "byte_to_int", 1},
	{ast.KUByte, ast.KInt, "ubyte_to_int", 1},
	{ast.KUByte, ast.KUInt, "ubyte_to_uint", 1},
	{ast.KByte, ast.KFloat, "byte_to_float", 2},
	{ast.KByte, ast.KDecimal, "byte_to_decimal", 2},
	{ast.KUByte, ast.KFloat, "ubyte_to_float", 2},
	{ast.KUByte, ast.KDecimal, "ubyte_to_decimal", 2},
	{ast.KInt, ast.KFloat, "int_to_float", 2},
	{ast.KInt, ast.KDecimal, "int_to_decimal", 2},
	{ast.KUInt, ast.KFloat, "uint_to_float", 2},
	{ast.KUInt, ast.KDecimal, "uint_to_decimal", 2},
	{ast.KDecimal, ast.KFloat, "decimal_to_float", 1},
	{ast.KFloat, ast.KDecimal, "float_to_decimal", 3},
	{ast.KChar, ast.KText, "char_to_text", 1},
	{ast.KInt, ast.KByte, "int_to_byte", 2},
	{ast.KInt, ast.KUByte, "int_to_ubyte", 2},
	{ast.KInt, ast.KUInt, "int_to_uint", 2},
	{ast.KEnum, ast.KInt, "enum_to_int", 0},
	{ast.KInt, ast.KEnum, "int_to_enum", 1},
}

// bestConversion returns the cheapest table row converting from to
// to, or ("", Unreachable) if no row applies (spec §4.3 "the
// checker picks the overload minimizing insertions").
func bestConversion(from, to ast.Kind) (backend string, cost int) {
	cost = Unreachable
	for _, row := range ConvTable {
		if row.Source == from && row.Target == to && row.Cost < cost {
			backend, cost = row.Backend, row.Cost
		}
	}
	return backend, cost
}

// Literal range-rewrite bounds (spec §4.3 boundary example: "Integer
// literal −129 is rejected as Byte but accepted as Integer").
const (
	byteLo, byteHi   = -128, 127
	ubyteLo, ubyteHi = 0, 255
)
