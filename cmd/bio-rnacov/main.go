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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rnacov/coverage"
)

var (
	libType     = flag.String("libtype", "", "Library strandedness; 'forward' (FR/fr-secondstrand) or 'reverse' (RF/fr-firststrand); required")
	outPrefix   = flag.String("out", "bio-rnacov", "Output path prefix; <prefix>.plus.bedgraph and/or <prefix>.minus.bedgraph are written")
	strandsFlag = flag.String("strand", "+,-", "Comma-separated transcript strands to report ('+' and/or '-'); order determines output order")
	split       = flag.Bool("split", coverage.DefaultOpts.Split, "Treat spliced BAM alignments as distinct intervals, so intronic gaps receive no coverage")
	pc          = flag.Bool("pc", coverage.DefaultOpts.PC, "Compute coverage of paired-end fragments rather than reads; ignored by bedtools when -split is set")
	fs          = flag.Bool("fs", coverage.DefaultOpts.FS, "Force provided fragment size instead of read length")
	du          = flag.Bool("du", coverage.DefaultOpts.DU, "Count the mate read toward the strand of the first read, so both reads of a pair land on the same strand")
	ignoreD     = flag.Bool("ignore-d", coverage.DefaultOpts.IgnoreD, "Ignore local deletions (CIGAR 'D' operations)")
	scale       = flag.Float64("scale", coverage.DefaultOpts.Scale, "Scale coverage by a constant factor")
	bga         = flag.Bool("bga", coverage.DefaultOpts.BGA, "Report zero-coverage intervals as well (default is sparse non-zero-only bedgraph)")
	maxDepth    = flag.Int("max-depth", coverage.DefaultOpts.MaxDepth, "Combine all positions with depth >= this value; 0 = no limit")
	fivePrime   = flag.Bool("five-prime", coverage.DefaultOpts.FivePrime, "Compute coverage of 5' positions only")
	threePrime  = flag.Bool("three-prime", coverage.DefaultOpts.ThreePrime, "Compute coverage of 3' positions only")
	trackline   = flag.Bool("trackline", coverage.DefaultOpts.Trackline, "Prepend a UCSC track line definition")
	trackopts   = flag.String("trackopts", coverage.DefaultOpts.Trackopts, "Additional UCSC track line parameters (e.g. 'name=\"My Track\" visibility=2')")
	bedtools    = flag.String("bedtools", coverage.DefaultOpts.BedtoolsPath, "Path to the bedtools executable")
	tempDir     = flag.String("temp-dir", coverage.DefaultOpts.TempDir, "Directory to write temporary files to (default os.TempDir())")
)

func bioRnacovUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioRnacovUsage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	nPositionalArgs := flag.NArg()
	positionalArgs := allArgs[len(allArgs)-nPositionalArgs:]
	if nPositionalArgs != 1 {
		if nPositionalArgs < 1 {
			log.Fatalf("Missing positional argument (bampath required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		} else {
			log.Fatalf("Too many positional arguments (only bampath expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		}
	}
	if *libType == "" {
		log.Fatalf("-libtype is required ('forward' or 'reverse')")
	}
	lib, err := coverage.ParseLibraryType(*libType)
	if err != nil {
		log.Fatalf("%v", err)
	}
	strands, err := coverage.ParseStrands(*strandsFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	ctx := vcontext.Background()
	opts := coverage.Opts{
		Split:        *split,
		PC:           *pc,
		FS:           *fs,
		DU:           *du,
		IgnoreD:      *ignoreD,
		Scale:        *scale,
		BGA:          *bga,
		MaxDepth:     *maxDepth,
		FivePrime:    *fivePrime,
		ThreePrime:   *threePrime,
		Trackline:    *trackline,
		Trackopts:    *trackopts,
		BedtoolsPath: *bedtools,
		TempDir:      *tempDir,
	}
	paths, err := coverage.Cover(ctx, positionalArgs[0], lib, *outPrefix, strands, &opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Generated %d coverage files:\n", len(paths))
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
	log.Debug.Printf("exiting")
}
