package domain

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// Ensemble is a list of Boolean networks over overlapping nodes.
type Ensemble []*BooleanNetwork

// LoadEnsembleZip reads every .bnet entry of a zip archive, in archive
// order. Other entries and directories are skipped.
func LoadEnsembleZip(filename string) (Ensemble, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ens Ensemble
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".bnet") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		bn, err := ReadBNet(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		ens = append(ens, bn)
	}
	return ens, nil
}

// InfluenceGraph returns the union of the influences of the networks of
// the ensemble. An influence present with both signs across networks is
// kept once per sign.
func (e Ensemble) InfluenceGraph(opts ...Option) *InfluenceGraph {
	ig := NewInfluenceGraph(opts...)
	seen := map[Edge]struct{}{}
	for _, bn := range e {
		for _, n := range bn.Nodes() {
			ig.AddNode(n)
		}
		for _, edge := range bn.Influences() {
			if _, ok := seen[edge]; ok {
				continue
			}
			seen[edge] = struct{}{}
			_ = ig.AddEdge(edge.Source, edge.Target, edge.Sign)
		}
	}
	return ig
}
