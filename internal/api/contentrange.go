/*
Copyright The ORAS Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"fmt"
	"strconv"
	"strings"
)

// parseContentRange parses the simplified "from-to" range header this
// registry accepts on chunked PATCH requests - not the RFC 7233 "bytes
// from-to/total" form.
func parseContentRange(header string) (from, to int64, err error) {
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	from, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed content-range %q: %w", header, err)
	}
	to, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed content-range %q: %w", header, err)
	}
	return from, to, nil
}
