package forward

import "sync"

// RunState 转发任务的运行状态，只由 Scheduler 持有
//
// enabled 表示用户期望的开关状态；alive 表示后台协程是否仍在运行。
// Stop 只清除 enabled 并唤醒等待中的协程，协程在下一个循环边界退出。
type RunState struct {
	mu      sync.Mutex
	enabled bool
	alive   bool
	wake    chan struct{}
	done    chan struct{}
}

func newRunState() *RunState {
	return &RunState{wake: make(chan struct{}, 1)}
}

// enable 打开开关；需要启动新协程时返回 launch=true
func (r *RunState) enable() (changed bool, launch bool, done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		return false, false, nil
	}
	r.enabled = true
	if r.alive {
		// 旧协程尚未走到循环边界，继续沿用；丢弃 Stop 留下的唤醒信号，按正常周期等待
		r.drainWakeLocked()
		return true, false, nil
	}
	r.alive = true
	r.done = make(chan struct{})
	return true, true, r.done
}

// disable 关闭开关并唤醒等待中的协程
func (r *RunState) disable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return false
	}
	r.enabled = false
	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// proceed 循环边界检查；返回 false 时协程必须退出
func (r *RunState) proceed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		return true
	}
	r.exitLocked()
	return false
}

// exit 协程因上下文取消退出
func (r *RunState) exit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	r.exitLocked()
}

func (r *RunState) exitLocked() {
	r.alive = false
	r.drainWakeLocked()
}

func (r *RunState) drainWakeLocked() {
	select {
	case <-r.wake:
	default:
	}
}

func (r *RunState) isEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *RunState) isAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive
}

func (r *RunState) doneChan() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
