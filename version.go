/*
Copyright 2024 The Gopond Authors.

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

package gopond

import (
	"fmt"
	"runtime"
)

// Version information set by link flags during build.
var (
	version   = "latest"
	buildDate = "1970-01-01T00:00:00Z"
	gitCommit = ""
)

// Version carries gopond build information.
type Version struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

func (v Version) String() string {
	return fmt.Sprintf("Version: %s, BuildDate: %s, GitCommit: %s, GoVersion: %s, Platform: %s",
		v.Version, v.BuildDate, v.GitCommit, v.GoVersion, v.Platform)
}

// GetVersion returns the version information.
func GetVersion() Version {
	versionStr := version
	if len(gitCommit) >= 7 {
		versionStr += "+" + gitCommit[0:7]
	}
	return Version{
		Version:   versionStr,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
