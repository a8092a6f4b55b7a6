package shopping

import (
	"reflect"
	"sync"

	"family-meal-planner/internal/planner"
)

// LiveList keeps the latest copy of each input and the list derived from them.
// Every update rebuilds the whole list and pushes it to subscribers. Updates
// are delivered in order; a notification that would arrive after a newer one
// is dropped.
type LiveList struct {
	mu      sync.Mutex
	planned []planner.PlannedMeal
	manual  []ManualItem
	checked map[string]bool
	items   []ShopItem
	version uint64
	subs    map[int]func([]ShopItem)
	nextSub int

	notifyMu  sync.Mutex
	delivered uint64
}

func NewLiveList() *LiveList {
	return &LiveList{
		checked: map[string]bool{},
		items:   []ShopItem{},
		subs:    make(map[int]func([]ShopItem)),
	}
}

func (l *LiveList) SetPlanned(meals []planner.PlannedMeal) {
	l.update(func() { l.planned = meals })
}

func (l *LiveList) SetManual(items []ManualItem) {
	l.update(func() { l.manual = items })
}

func (l *LiveList) SetChecked(checked map[string]bool) {
	if checked == nil {
		checked = map[string]bool{}
	}
	l.update(func() { l.checked = checked })
}

// Replace swaps all three inputs in one rebuild. Subscribers are only told
// when the resulting list differs from the current one.
func (l *LiveList) Replace(meals []planner.PlannedMeal, manual []ManualItem, checked map[string]bool) {
	if checked == nil {
		checked = map[string]bool{}
	}
	l.rebuild(func() {
		l.planned = meals
		l.manual = manual
		l.checked = checked
	}, true)
}

// Items returns a copy of the current list.
func (l *LiveList) Items() []ShopItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneItems(l.items)
}

// Subscribe registers fn to receive every rebuilt list. Subscribers share the
// slice they are given and must not modify it. The returned func unsubscribes.
func (l *LiveList) Subscribe(fn func([]ShopItem)) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *LiveList) update(apply func()) {
	l.rebuild(apply, false)
}

func (l *LiveList) rebuild(apply func(), onlyIfChanged bool) {
	l.mu.Lock()
	apply()
	items := Recompute(l.planned, l.manual, l.checked)
	if onlyIfChanged && reflect.DeepEqual(items, l.items) {
		l.mu.Unlock()
		return
	}
	l.items = items
	l.version++
	version := l.version
	items = cloneItems(l.items)
	subs := make([]func([]ShopItem), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	if version <= l.delivered {
		return
	}
	l.delivered = version
	for _, fn := range subs {
		fn(items)
	}
}

func cloneItems(items []ShopItem) []ShopItem {
	out := make([]ShopItem, len(items))
	copy(out, items)
	return out
}
