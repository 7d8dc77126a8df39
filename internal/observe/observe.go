// Package observe содержит минимальный примитив подписки на изменения.
package observe

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Observers список подписчиков; нулевое значение готово к использованию.
// Уведомления доставляются синхронно в порядке подписки.
type Observers[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

// Subscribe регистрирует обработчик и возвращает функцию отписки
func (o *Observers[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

func (o *Observers[T]) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

// Notify вызывает всех подписчиков вне блокировки
func (o *Observers[T]) Notify(v T) {
	o.mu.Lock()
	subs := append([]subscriber[T](nil), o.subs...)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len возвращает количество подписчиков
func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
