// SPDX-License-Identifier: AGPL-3.0-or-later
package prompt

import (
	"fmt"
	"sync"
)

// Scripted answers prompts from queued responses. Select answers are values.
// An exhausted queue returns ErrNotInteractive.
type Scripted struct {
	mu       sync.Mutex
	Selects  []string
	Confirms []bool
	Inputs   []string
	asked    []string
}

func (s *Scripted) Select(title string, options []Option, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, title)
	if len(s.Selects) == 0 {
		return "", ErrNotInteractive
	}
	v := s.Selects[0]
	s.Selects = s.Selects[1:]
	for _, o := range options {
		if o.Value == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("scripted answer %q is not an option of %q", v, title)
}

func (s *Scripted) Confirm(question string, _ bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, question)
	if len(s.Confirms) == 0 {
		return false, ErrNotInteractive
	}
	v := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return v, nil
}

func (s *Scripted) Input(question, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, question)
	if len(s.Inputs) == 0 {
		return "", ErrNotInteractive
	}
	v := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return v, nil
}

// Asked returns the questions and titles seen so far.
func (s *Scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}
