// Package rotation keeps the order in which members host the weekly whinetime.
//
// The order is stored in a flat file: the first line holds the comma-separated hosts, the second line the number of
// rotations left before the order is reshuffled.
package rotation

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrNoHosts     = errors.New("no hosts in rotation")
	ErrUnknownHost = errors.New("host not in rotation")
)

// Order is the current state of the rotation.
type Order struct {
	Hosts     []string
	Countdown int
}

// Store reads and writes the rotation file. All operations read the file, and those that change the order rewrite it
// in full.
type Store struct {
	path string
	rand *rand.Rand
	lock sync.Mutex
}

// New returns a Store for the rotation file at path. If r is nil, a randomly seeded source is used to shuffle hosts.
func New(path string, r *rand.Rand) *Store {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Store{path: path, rand: r}
}

// Hosts returns the current order.
func (s *Store) Hosts() ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	order, err := s.load()
	return order.Hosts, err
}

// Load returns the current order and countdown.
func (s *Store) Load() (Order, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.load()
}

// Randomise shuffles the hosts and resets the countdown to the number of hosts.
func (s *Store) Randomise() ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	order, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.randomise(order.Hosts)
}

// Rotate moves the current host to the back of the queue and decrements the countdown.
func (s *Store) Rotate() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	order, err := s.load()
	if err != nil {
		return err
	}
	if len(order.Hosts) == 0 {
		return ErrNoHosts
	}
	hosts := append(slices.Clone(order.Hosts[1:]), order.Hosts[0])
	return s.save(Order{Hosts: hosts, Countdown: order.Countdown - 1})
}

// NextHost returns the host at the head of the queue. Once the countdown has run out, the order is reshuffled first.
func (s *Store) NextHost() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	order, err := s.load()
	if err != nil {
		return "", err
	}
	if len(order.Hosts) == 0 {
		return "", ErrNoHosts
	}
	hosts := order.Hosts
	if order.Countdown <= 0 {
		if hosts, err = s.randomise(hosts); err != nil {
			return "", err
		}
	}
	return hosts[0], nil
}

// WeeksUntil returns how many rotations are left before host is up.
func (s *Store) WeeksUntil(host string) (int, error) {
	hosts, err := s.Hosts()
	if err != nil {
		return 0, err
	}
	if i := slices.Index(hosts, host); i >= 0 {
		return i, nil
	}
	return 0, ErrUnknownHost
}

// Candidates returns the hosts, in order, that are not excluded.
func (s *Store) Candidates(exclude ...string) ([]string, error) {
	hosts, err := s.Hosts()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(hosts, func(host string) bool {
		return slices.Contains(exclude, host)
	}), nil
}

func (s *Store) randomise(hosts []string) ([]string, error) {
	shuffled := slices.Clone(hosts)
	s.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if err := s.save(Order{Hosts: shuffled, Countdown: len(shuffled)}); err != nil {
		return nil, err
	}
	return shuffled, nil
}

func (s *Store) load() (Order, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Order{}, fmt.Errorf("rotation: %w", err)
	}
	defer func() { _ = f.Close() }()

	var order Order
	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		for _, host := range strings.Split(scanner.Text(), ",") {
			if host = strings.TrimSpace(host); host != "" {
				order.Hosts = append(order.Hosts, host)
			}
		}
	}
	if scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			if order.Countdown, err = strconv.Atoi(line); err != nil {
				return Order{}, fmt.Errorf("rotation: invalid countdown %q: %w", line, err)
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return Order{}, fmt.Errorf("rotation: %w", err)
	}
	return order, nil
}

func (s *Store) save(order Order) error {
	content := strings.Join(order.Hosts, ",") + "\n" + strconv.Itoa(order.Countdown)
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	if _, err = tmp.WriteString(content); err == nil {
		err = tmp.Chmod(fileMode(s.path))
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rotation: %w", err)
	}
	return nil
}

// fileMode returns the permissions of the file at path, so a rewrite keeps them. New files are world-readable.
func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}
