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

/*
Given an RNA-seq BAM and its library strandedness protocol, bio-rnacov writes
one bedgraph coverage track per requested transcript strand by driving
"bedtools genomecov".  Under the reverse (dUTP) protocol the alignment strand
is opposite to the transcript strand, so the engine's strand filter is
inverted relative to the requested strand; under the forward protocol the two
agree.

Defaults are RNA-seq-appropriate: splice-aware counting (-split), mate-pair
strand unification (-du), and sparse non-zero-only bedgraph output (-bg).
Every genomecov toggle is individually overridable.  Note that bedtools
ignores -pc when -split is set, so positions covered by both mates of a pair
may be double-counted in split mode.

Sample usage:
bio-rnacov \
    --libtype reverse \
    --out output-prefix \
    my.bam
*/
package main
