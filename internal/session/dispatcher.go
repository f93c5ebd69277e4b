package session

import "sync"

// Dispatcher выполняет задачи разных сессий параллельно, а задачи одной
// сессии строго по очереди в порядке вызова Dispatch.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[Key][]func()
	wg     sync.WaitGroup
	closed bool
}

// NewDispatcher создает диспетчер
func NewDispatcher() *Dispatcher {
	return &Dispatcher{queues: make(map[Key][]func())}
}

// Dispatch ставит job в очередь сессии key. Возвращает false после Close.
func (d *Dispatcher) Dispatch(key Key, job func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	queue, running := d.queues[key]
	d.queues[key] = append(queue, job)
	if !running {
		d.wg.Add(1)
		go d.drain(key)
	}
	return true
}

// drain выполняет очередь сессии, пока она не опустеет
func (d *Dispatcher) drain(key Key) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		job := queue[0]
		queue[0] = nil
		d.queues[key] = queue[1:]
		d.mu.Unlock()

		job()
	}
}

// Close перестает принимать задачи и ждет завершения уже поставленных
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
