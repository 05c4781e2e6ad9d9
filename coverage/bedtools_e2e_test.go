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
package coverage_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnacov/coverage"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// These tests exercise real bedtools and are skipped when it is not
// installed.

func requireBedtools(t *testing.T) string {
	path, err := exec.LookPath("bedtools")
	if err != nil {
		t.Skip("bedtools not found in PATH; skipping end-to-end test")
	}
	return path
}

// writeSplicedPairBAM writes a BAM holding one forward-oriented read pair
// whose alignments span [100,200) on chr1 with an intronic gap at [150,160)
// (CIGAR 50M10N40M).
func writeSplicedPairBAM(t *testing.T, path string) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	assert.NoError(t, err)

	cigar := []sam.CigarOp{
		sam.NewCigarOp(sam.CigarMatch, 50),
		sam.NewCigarOp(sam.CigarSkipped, 10),
		sam.NewCigarOp(sam.CigarMatch, 40),
	}
	seq := []byte(strings.Repeat("A", 90))
	qual := bytes.Repeat([]byte{40}, 90)

	r1, err := sam.NewRecord("frag1", chr1, chr1, 100, 100, 100, 60, cigar, seq, qual, nil)
	assert.NoError(t, err)
	r1.Flags |= sam.Paired | sam.ProperPair | sam.MateReverse | sam.Read1
	r2, err := sam.NewRecord("frag1", chr1, chr1, 100, 100, -100, 60, cigar, seq, qual, nil)
	assert.NoError(t, err)
	r2.Flags |= sam.Paired | sam.ProperPair | sam.Reverse | sam.Read2

	out, err := os.Create(path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(out, header, 1)
	assert.NoError(t, err)
	assert.NoError(t, w.Write(r1))
	assert.NoError(t, w.Write(r2))
	assert.NoError(t, w.Close())
	assert.NoError(t, out.Close())
}

// readDepths expands a sparse bedgraph into per-position depths.
func readDepths(t *testing.T, path string) map[int]float64 {
	content, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	return parseDepths(t, string(content))
}

func parseDepths(t *testing.T, content string) map[int]float64 {
	depths := map[int]float64{}
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		assert.True(t, len(fields) >= 4, "line %q", line)
		start, err := strconv.Atoi(fields[1])
		assert.NoError(t, err)
		end, err := strconv.Atoi(fields[2])
		assert.NoError(t, err)
		depth, err := strconv.ParseFloat(fields[3], 64)
		assert.NoError(t, err)
		for pos := start; pos < end; pos++ {
			depths[pos] += depth
		}
	}
	return depths
}

func expectExonCoverage(t *testing.T, depths map[int]float64) {
	expect.True(t, len(depths) > 0)
	for pos := range depths {
		expect.True(t, (pos >= 100 && pos < 150) || (pos >= 160 && pos < 200),
			"unexpected covered position %d", pos)
	}
	for pos := 100; pos < 200; pos++ {
		if pos >= 150 && pos < 160 {
			// Intronic gap: splice-aware counting excludes it.
			expect.EQ(t, depths[pos], 0.0, "pos=%d", pos)
			continue
		}
		expect.True(t, depths[pos] > 0, "pos=%d", pos)
	}
}

func TestEndToEndForward(t *testing.T) {
	requireBedtools(t)
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	bamPath := filepath.Join(tmpdir, "spliced.bam")
	writeSplicedPairBAM(t, bamPath)
	opts := coverage.DefaultOpts
	prefix := filepath.Join(tmpdir, "fwd")

	paths, err := coverage.Cover(context.Background(), bamPath, coverage.LibraryForward, prefix,
		[]coverage.Strand{coverage.StrandPlus, coverage.StrandMinus}, &opts)
	assert.NoError(t, err)
	expect.EQ(t, paths, []string{prefix + ".plus.bedgraph", prefix + ".minus.bedgraph"})

	expectExonCoverage(t, readDepths(t, paths[0]))
	// The pair is plus-oriented only, so the minus track is empty.
	expect.EQ(t, len(readDepths(t, paths[1])), 0)
}

func TestEndToEndReverse(t *testing.T) {
	requireBedtools(t)
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	bamPath := filepath.Join(tmpdir, "spliced.bam")
	writeSplicedPairBAM(t, bamPath)
	opts := coverage.DefaultOpts
	prefix := filepath.Join(tmpdir, "rev")

	paths, err := coverage.Cover(context.Background(), bamPath, coverage.LibraryReverse, prefix,
		[]coverage.Strand{coverage.StrandPlus, coverage.StrandMinus}, &opts)
	assert.NoError(t, err)

	// Same data, inverted filter: the coverage moves to the minus track.
	expect.EQ(t, len(readDepths(t, paths[0])), 0)
	expectExonCoverage(t, readDepths(t, paths[1]))
}

func TestStrandSumsMatchUnstranded(t *testing.T) {
	bedtoolsPath := requireBedtools(t)
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	bamPath := filepath.Join(tmpdir, "spliced.bam")
	writeSplicedPairBAM(t, bamPath)
	opts := coverage.DefaultOpts
	prefix := filepath.Join(tmpdir, "sum")

	paths, err := coverage.Cover(context.Background(), bamPath, coverage.LibraryForward, prefix,
		[]coverage.Strand{coverage.StrandPlus, coverage.StrandMinus}, &opts)
	assert.NoError(t, err)

	stranded := readDepths(t, paths[0])
	for pos, depth := range readDepths(t, paths[1]) {
		stranded[pos] += depth
	}

	// An unstranded run with otherwise identical options must equal the sum
	// of the two per-strand tracks.
	cmd := exec.Command(bedtoolsPath, "genomecov", "-ibam", bamPath, "-bg", "-split", "-du")
	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	assert.NoError(t, cmd.Run(), "bedtools genomecov failed: %s", stderr.String())
	unstranded := parseDepths(t, stdout.String())

	expect.EQ(t, len(stranded), len(unstranded))
	for pos, depth := range unstranded {
		expect.EQ(t, stranded[pos], depth, "pos=%d", pos)
	}
}
