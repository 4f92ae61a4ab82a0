// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// releaseStack releases owned objects in reverse order of acquisition
type releaseStack struct {
	names    []string
	releases []func()
}

func (s *releaseStack) push(name string, release func()) {
	s.names = append(s.names, name)
	s.releases = append(s.releases, release)
}

func (s *releaseStack) len() int {
	return len(s.releases)
}

// unwind releases everything, most recent first
func (s *releaseStack) unwind() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		Logger().WithField("object", s.names[i]).Debug("releasing")
		s.releases[i]()
	}
	s.names = nil
	s.releases = nil
}
