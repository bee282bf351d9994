// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logstore

import "sync"

// treeHeadNotifier maintains the observer registry for tree head updates.
// Observers are compared by interface identity, so the exact value passed
// to add must be passed to remove.
type treeHeadNotifier struct {
	mu        sync.Mutex
	observers []TreeHeadObserver
}

// add registers an observer. Registering the same observer twice is a
// programming error surfaced as [ErrObserverRegistered].
func (n *treeHeadNotifier) add(obs TreeHeadObserver) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, o := range n.observers {
		if o == obs {
			return ErrObserverRegistered
		}
	}
	n.observers = append(n.observers, obs)
	return nil
}

// remove deregisters an observer added earlier.
func (n *treeHeadNotifier) remove(obs TreeHeadObserver) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, o := range n.observers {
		if o == obs {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return nil
		}
	}
	return ErrObserverNotRegistered
}

// notify delivers a tree head to every registered observer. Delivery runs
// on the caller's goroutine with no registry lock held, so observers may
// add or remove themselves.
func (n *treeHeadNotifier) notify(th TreeHead) {
	n.mu.Lock()
	observers := make([]TreeHeadObserver, len(n.observers))
	copy(observers, n.observers)
	n.mu.Unlock()

	for _, obs := range observers {
		obs.TreeHeadUpdated(th)
	}
}

// empty reports whether no observers are registered.
func (n *treeHeadNotifier) empty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.observers) == 0
}
