package feature

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("BrownClusters", func(w int, args []string, _ *bilou.EntityMap) (Processor, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("BrownClusters: expected a cluster path and at least one prefix length")
		}
		path := args[0]
		prefixes := make([]int, 0, len(args)-1)
		for _, a := range args[1:] {
			n, err := strconv.Atoi(a)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("BrownClusters: invalid prefix length %q", a)
			}
			prefixes = append(prefixes, n)
		}
		p := &brownClustersProc{km: newKeyMap(w), path: path, prefixes: prefixes, clusterOf: make(map[string]string)}
		if err := p.loadClusterFile(path); err != nil {
			// A missing cluster file degrades gracefully: the
			// processor simply never matches, matching the "unseen
			// keys yield no features" error-handling policy for
			// per-sentence anomalies.
			p.clusterOf = make(map[string]string)
		}
		return p, nil
	})

	// The Factory above rejects args=nil (it wants a path and at least
	// one prefix length); Set.Load needs a bare instance to populate via
	// Processor.Load instead.
	RegisterEmpty("BrownClusters", func() Processor {
		return &brownClustersProc{clusterOf: make(map[string]string)}
	})
}

// brownClustersProc looks up each token's Brown cluster bit-string in a
// file of "<cluster>\t<form>\n" lines and emits configurable prefixes
// of that bit-string as features — coarser clusters generalise better
// for rare forms.
type brownClustersProc struct {
	km        *keyMap
	path      string
	prefixes  []int
	clusterOf map[string]string
}

func (p *brownClustersProc) Name() string { return "BrownClusters" }

func (p *brownClustersProc) loadClusterFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		p.clusterOf[parts[1]] = parts[0]
	}
	return scanner.Err()
}

func (p *brownClustersProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		cluster, ok := p.clusterOf[s.Words[i].Form]
		if !ok {
			continue
		}
		for _, plen := range p.prefixes {
			l := plen
			if l > len(cluster) {
				l = len(cluster)
			}
			key := cluster[:l]
			if base, ok := p.km.lookup(key, adding); ok {
				s.ApplyInWindow(i, p.km.window, base)
			}
		}
	}
}

func (p *brownClustersProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *brownClustersProc) Load(d *codec.Decoder) error {
	p.path = d.NextStr4()
	n := d.Next1B()
	p.prefixes = make([]int, n)
	for i := range p.prefixes {
		p.prefixes[i] = int(d.Next1B())
	}
	p.km = newKeyMap(0)
	p.km.load(d)
	if p.clusterOf == nil {
		p.clusterOf = make(map[string]string)
	}
	if p.path != "" {
		_ = p.loadClusterFile(p.path)
	}
	return d.Err()
}

func (p *brownClustersProc) Save(e *codec.Encoder) {
	e.AddStr4(p.path)
	e.Add1B(uint8(len(p.prefixes)))
	for _, plen := range p.prefixes {
		e.Add1B(uint8(plen))
	}
	p.km.save(e)
}
