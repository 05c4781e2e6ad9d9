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

// Package coverage computes strand-specific per-base genome coverage tracks
// from RNA-seq BAMs by driving bedtools genomecov, mapping the requested
// transcript strands to alignment-strand filters according to the library
// strandedness protocol.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/grailbio/base/log"
)

var (
	// ErrInvalidLibraryType is returned when a library type is not 'forward'
	// or 'reverse'.
	ErrInvalidLibraryType = errors.New("unrecognized library type")
	// ErrInvalidStrand is returned when a requested strand is not '+' or '-'.
	ErrInvalidStrand = errors.New("unrecognized strand")
	// ErrInputNotFound is returned when the input BAM does not exist or is
	// not readable.
	ErrInputNotFound = errors.New("input alignment file not found")
)

// bedgraphExt is the extension of the produced coverage files, without the
// leading dot.
const bedgraphExt = "bedgraph"

// ArtifactPath returns the output path for the coverage track of the given
// transcript strand: <outPrefix>.plus.bedgraph or <outPrefix>.minus.bedgraph.
func ArtifactPath(outPrefix string, s Strand) string {
	return outPrefix + "." + s.Label() + "." + bedgraphExt
}

// Cover produces one bedgraph coverage track per requested transcript strand
// and returns the produced paths in request order.  Each strand is computed
// by a separate, sequential genomecov run against bamPath, filtered to the
// alignment strand that EngineStrand resolves for libType.
//
// Processing is fail-fast: the first per-strand failure aborts the call, and
// artifacts already written for earlier strands are left on disk.  Callers
// must treat a failed call as having produced an indeterminate, possibly
// partial set of files.
//
// Cover does not check that libType matches the actual chemistry of the
// input data; a wrong declaration silently swaps the two output tracks.
func Cover(ctx context.Context, bamPath string, libType LibraryType, outPrefix string, strands []Strand, opts *Opts) (paths []string, err error) {
	if opts == nil {
		defaults := DefaultOpts
		opts = &defaults
	}
	if err = opts.validate(); err != nil {
		return nil, err
	}
	if len(strands) == 0 {
		return nil, fmt.Errorf("%w: empty strand set", ErrInvalidStrand)
	}
	// Resolve every strand filter up front so that validation failures
	// surface before any subprocess runs or output file is touched.
	engineStrands := make([]Strand, len(strands))
	for i, s := range strands {
		if engineStrands[i], err = EngineStrand(libType, s); err != nil {
			return nil, err
		}
	}
	if _, err = os.Stat(bamPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}

	tmpDir, err := ioutil.TempDir(opts.TempDir, "rnacov")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	for i, s := range strands {
		log.Debug.Printf("computing %s-strand coverage of %s (alignment-strand filter %s)", s.Label(), bamPath, engineStrands[i].Symbol())
		var covPath string
		if covPath, err = runGenomecov(ctx, bamPath, engineStrands[i], opts, tmpDir); err != nil {
			return nil, err
		}
		dstPath := ArtifactPath(outPrefix, s)
		if err = writeArtifact(ctx, covPath, dstPath); err != nil {
			return nil, err
		}
		paths = append(paths, dstPath)
	}
	return paths, nil
}
