package brs

import (
	"sync"
)

// SubsystemState 子系统状态
type SubsystemState int

const (
	// SubsystemDisabled 配置未启用
	SubsystemDisabled SubsystemState = iota
	// SubsystemNotStarted 已装配，尚未启动
	SubsystemNotStarted
	// SubsystemRunning 运行中
	SubsystemRunning
	// SubsystemStopped 已停止
	SubsystemStopped
)

// String 返回状态字符串
func (s SubsystemState) String() string {
	switch s {
	case SubsystemDisabled:
		return "disabled"
	case SubsystemNotStarted:
		return "not_started"
	case SubsystemRunning:
		return "running"
	case SubsystemStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// subsystems 按装配顺序记录子系统状态
type subsystems struct {
	mu    sync.Mutex
	order []string
	state map[string]SubsystemState
}

func newSubsystems() *subsystems {
	return &subsystems{state: make(map[string]SubsystemState)}
}

func (s *subsystems) register(name string, st SubsystemState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[name]; !ok {
		s.order = append(s.order, name)
	}
	s.state[name] = st
}

func (s *subsystems) set(name string, st SubsystemState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[name]; ok {
		s.state[name] = st
	}
}

func (s *subsystems) get(name string) SubsystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[name]
}

// snapshot 返回状态副本
func (s *subsystems) snapshot() map[string]SubsystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SubsystemState, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// with 按装配顺序返回处于指定状态的子系统
func (s *subsystems) with(states ...SubsystemState) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, name := range s.order {
		for _, st := range states {
			if s.state[name] == st {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
