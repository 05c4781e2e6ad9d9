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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Opts enumerates the supported bedtools genomecov options.  Every option is
// passed through to the engine unmodified; there is no open-ended option bag,
// so anything not listed here is rejected at compile time rather than
// silently forwarded to the subprocess.
type Opts struct {
	// Split treats spliced BAM alignments (CIGAR 'N' operations) as distinct
	// coverage intervals, so intronic gaps receive no coverage.
	Split bool
	// PC computes coverage of paired-end fragments rather than reads.
	// Note: bedtools silently ignores -pc when -split is set, so positions
	// covered by both mates of a pair may be double-counted in split mode.
	PC bool
	// FS forces the provided fragment size instead of the read length.
	FS bool
	// DU counts the mate read toward the strand of the first read, so both
	// reads of a pair land on the same strand.
	DU bool
	// IgnoreD ignores local deletions (CIGAR 'D' operations).
	IgnoreD bool
	// Scale multiplies reported coverage by a constant factor.  Passed to the
	// engine only when it differs from 1.0.
	Scale float64
	// BGA reports zero-coverage intervals as well; the default is the sparse
	// -bg bedgraph mode, which emits non-zero positions only.
	BGA bool
	// MaxDepth combines all positions with depth >= this value; 0 = no limit.
	MaxDepth int
	// FivePrime restricts coverage to 5' positions.  Mutually exclusive with
	// ThreePrime.
	FivePrime bool
	// ThreePrime restricts coverage to 3' positions.
	ThreePrime bool
	// Trackline prepends a UCSC track line definition.
	Trackline bool
	// Trackopts holds additional UCSC track line parameters.
	Trackopts string
	// BedtoolsPath is the bedtools executable to invoke.
	BedtoolsPath string
	// TempDir is the directory to write temporary files to (default
	// os.TempDir()).
	TempDir string
}

// DefaultOpts holds the RNA-seq-appropriate defaults: splice-aware counting,
// mate-pair strand unification, sparse bedgraph output.
var DefaultOpts = Opts{
	Split:        true,
	DU:           true,
	Scale:        1.0,
	BedtoolsPath: "bedtools",
}

func (o *Opts) validate() error {
	if o.FivePrime && o.ThreePrime {
		return fmt.Errorf("five-prime and three-prime restriction are mutually exclusive")
	}
	return nil
}

// EngineError describes a bedtools genomecov subprocess that exited with a
// non-zero status.
type EngineError struct {
	ExitCode int
	Stderr   string
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("bedtools genomecov exited with status %d", e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// genomecovArgs builds the genomecov argument list for one strand-filtered
// invocation.
func genomecovArgs(bamPath string, engineStrand Strand, opts *Opts) []string {
	args := []string{"genomecov", "-ibam", bamPath, "-strand", engineStrand.Symbol()}
	if opts.BGA {
		args = append(args, "-bga")
	} else {
		args = append(args, "-bg")
	}
	if opts.Split {
		args = append(args, "-split")
	}
	if opts.PC {
		args = append(args, "-pc")
	}
	if opts.FS {
		args = append(args, "-fs")
	}
	if opts.DU {
		args = append(args, "-du")
	}
	if opts.IgnoreD {
		args = append(args, "-ignoreD")
	}
	if opts.Scale != 0 && opts.Scale != 1.0 {
		args = append(args, "-scale", strconv.FormatFloat(opts.Scale, 'g', -1, 64))
	}
	if opts.MaxDepth > 0 {
		args = append(args, "-max", strconv.Itoa(opts.MaxDepth))
	}
	if opts.FivePrime {
		args = append(args, "-5")
	}
	if opts.ThreePrime {
		args = append(args, "-3")
	}
	if opts.Trackline {
		args = append(args, "-trackline")
	}
	if opts.Trackopts != "" {
		args = append(args, "-trackopts", opts.Trackopts)
	}
	return args
}

// runGenomecov runs one genomecov invocation, streaming its stdout to a file
// under tmpDir, and returns that file's path.  tmpDir is scoped to the
// enclosing Cover call and removed on every exit path.
func runGenomecov(ctx context.Context, bamPath string, engineStrand Strand, opts *Opts, tmpDir string) (string, error) {
	outPath := filepath.Join(tmpDir, "genomecov."+engineStrand.Label()+".bedgraph")
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	stderr := bytes.NewBuffer(nil)
	cmd := exec.CommandContext(ctx, opts.BedtoolsPath, genomecovArgs(bamPath, engineStrand, opts)...)
	cmd.Stdout = out
	cmd.Stderr = stderr
	runErr := cmd.Run()
	if err = out.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return "", &EngineError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("running %s genomecov: %v", opts.BedtoolsPath, runErr)
	}
	return outPath, nil
}
