// Copyright 2021 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package coverage

import (
	"fmt"
	"strings"
)

// LibraryType describes the strandedness protocol of an RNA-seq library.
type LibraryType int

const (
	// LibraryForward is the FR/fr-secondstrand (ligation) protocol: the first
	// mate's alignment strand matches the transcript strand.
	LibraryForward LibraryType = iota
	// LibraryReverse is the RF/fr-firststrand (dUTP) protocol: the first
	// mate's alignment strand is opposite to the transcript strand.
	LibraryReverse
)

// LibraryTypeNameTable is the LibraryType -> name mapping.
var LibraryTypeNameTable = [...]string{"forward", "reverse"}

func (lt LibraryType) String() string {
	if lt < LibraryForward || lt > LibraryReverse {
		return fmt.Sprintf("LibraryType(%d)", int(lt))
	}
	return LibraryTypeNameTable[lt]
}

// ParseLibraryType parses a library type name given on the command line.
// Names are matched case-insensitively.
func ParseLibraryType(name string) (LibraryType, error) {
	switch strings.ToLower(name) {
	case "forward":
		return LibraryForward, nil
	case "reverse":
		return LibraryReverse, nil
	}
	return 0, fmt.Errorf("%w: %q (want 'forward' or 'reverse')", ErrInvalidLibraryType, name)
}

// Strand describes a transcript strand.
type Strand int

const (
	// StrandPlus is the '+' strand.
	StrandPlus Strand = iota
	// StrandMinus is the '-' strand.
	StrandMinus
)

// StrandSymbolTable is the Strand -> '+'/'-' mapping.
var StrandSymbolTable = [...]string{"+", "-"}

// StrandLabelTable is the Strand -> output-file-label mapping.
var StrandLabelTable = [...]string{"plus", "minus"}

// Symbol returns the '+'/'-' form of s, as passed to bedtools.
func (s Strand) Symbol() string {
	return StrandSymbolTable[s]
}

// Label returns the 'plus'/'minus' form of s, as used in output file names.
func (s Strand) Label() string {
	return StrandLabelTable[s]
}

func (s Strand) String() string {
	if s < StrandPlus || s > StrandMinus {
		return fmt.Sprintf("Strand(%d)", int(s))
	}
	return s.Symbol()
}

// ParseStrand parses a single '+'/'-' strand symbol.
func ParseStrand(symbol string) (Strand, error) {
	switch symbol {
	case "+":
		return StrandPlus, nil
	case "-":
		return StrandMinus, nil
	}
	return 0, fmt.Errorf("%w: %q (want '+' or '-')", ErrInvalidStrand, symbol)
}

// ParseStrands parses a comma-separated strand-set descriptor given on the
// command line (e.g. "+,-").  Order is preserved; it determines output
// iteration order.
func ParseStrands(param string) ([]Strand, error) {
	if param == "" {
		return nil, fmt.Errorf("%w: empty strand set", ErrInvalidStrand)
	}
	parts := strings.Split(param, ",")
	strands := make([]Strand, 0, len(parts))
	for _, part := range parts {
		s, err := ParseStrand(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		strands = append(strands, s)
	}
	return strands, nil
}

// EngineStrand returns the alignment-strand filter to pass to bedtools
// genomecov so that it reports coverage of reads transcribed from the
// requested transcript strand under the given library type:
//
//   forward / + -> +
//   forward / - -> -
//   reverse / + -> -
//   reverse / - -> +
//
// Under the reverse protocol the dUTP chemistry sequences the second strand,
// so alignment strand is anti-correlated with transcript strand and the
// filter must be inverted.
func EngineStrand(lib LibraryType, requested Strand) (Strand, error) {
	if lib < LibraryForward || lib > LibraryReverse {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLibraryType, int(lib))
	}
	if requested < StrandPlus || requested > StrandMinus {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStrand, int(requested))
	}
	if lib == LibraryReverse {
		if requested == StrandPlus {
			return StrandMinus, nil
		}
		return StrandPlus, nil
	}
	return requested, nil
}
