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
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// writeArtifact copies a completed genomecov result from the scoped temp
// area to its final destination, creating missing parent directories for
// local paths.
func writeArtifact(ctx context.Context, srcPath, dstPath string) (err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close() // nolint: errcheck
	// file.Create handles non-local schemes (e.g. s3://) itself; only local
	// destinations need their parent directory created here.
	if !strings.Contains(dstPath, "://") {
		if dir := filepath.Dir(dstPath); dir != "." {
			if err = os.MkdirAll(dir, 0777); err != nil {
				return errors.E(err, "couldn't create output directory:", dir)
			}
		}
	}
	dst, err := file.Create(ctx, dstPath)
	if err != nil {
		return errors.E(err, "couldn't create coverage file:", dstPath)
	}
	defer file.CloseAndReport(ctx, dst, &err)
	if _, err = io.Copy(dst.Writer(ctx), src); err != nil {
		return errors.E(err, "error writing to coverage file:", dstPath)
	}
	return nil
}
