/*
Copyright © 2019-2024 Sigopti

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package pyodhean

import "sort"

// techSep joins a producer id and a technology name into a globally
// unique technology id.
const techSep = ":"

// topology holds the index sets and the dense directional pipe tables
// of one problem instance. Consumers appear in two roles ("this node"
// and "other node") over the same underlying id set; both roles range
// over the consumers slice.
//
// All id slices are sorted, so two builds of the same input produce
// identical variable and constraint ordering.
type topology struct {
	producers []string
	consumers []string
	// techs holds producer-prefixed technology ids.
	techs       []string
	techOwner   map[string]string
	techName    map[string]string
	techDefs    map[string]Technology
	techsByProd map[string][]string

	// Four length tables, one per directional pipe family. Every
	// ordered pair of the respective cross product is present; 0 means
	// the pipe does not exist. The return tables are transposes of the
	// forward tables: one physical trunk, two directions.
	lenPC         map[Pair]float64
	lenCP         map[Pair]float64
	lenCCParallel map[Pair]float64
	lenCCReturn   map[Pair]float64
}

// exists translates a table length into the binary existence flag used
// by the big-M constraints.
func exists(length float64) float64 {
	if length > 0 {
		return 1
	}
	return 0
}

func buildTopology(production map[string]ProductionNode, consumption map[string]ConsumptionNode, config Configuration) (*topology, error) {
	top := &topology{
		techOwner:   make(map[string]string),
		techName:    make(map[string]string),
		techDefs:    make(map[string]Technology),
		techsByProd: make(map[string][]string),
	}

	for id := range production {
		top.producers = append(top.producers, id)
	}
	sort.Strings(top.producers)

	for id := range consumption {
		top.consumers = append(top.consumers, id)
	}
	sort.Strings(top.consumers)

	for _, i := range top.producers {
		node := production[i]
		if len(node.Technologies) == 0 {
			return nil, configErrorf("production", "node %q has no technology", i)
		}
		names := make([]string, 0, len(node.Technologies))
		for name := range node.Technologies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			k := i + techSep + name
			top.techs = append(top.techs, k)
			top.techOwner[k] = i
			top.techName[k] = name
			top.techDefs[k] = node.Technologies[name]
			top.techsByProd[i] = append(top.techsByProd[i], k)
		}
	}

	// Dense tables: every cross-product pair gets an entry, absent
	// pairs default to length 0.
	top.lenPC = make(map[Pair]float64, len(top.producers)*len(top.consumers))
	top.lenCP = make(map[Pair]float64, len(top.producers)*len(top.consumers))
	for _, i := range top.producers {
		for _, j := range top.consumers {
			top.lenPC[Pair{i, j}] = 0
			top.lenCP[Pair{j, i}] = 0
		}
	}
	top.lenCCParallel = make(map[Pair]float64, len(top.consumers)*len(top.consumers))
	top.lenCCReturn = make(map[Pair]float64, len(top.consumers)*len(top.consumers))
	for _, j := range top.consumers {
		for _, o := range top.consumers {
			top.lenCCParallel[Pair{j, o}] = 0
			top.lenCCReturn[Pair{o, j}] = 0
		}
	}

	for pair, length := range config.ProdConsPipes {
		if _, ok := production[pair.Source]; !ok {
			return nil, configErrorf("links", "pipe %v: unknown production node %q", pair, pair.Source)
		}
		if _, ok := consumption[pair.Target]; !ok {
			return nil, configErrorf("links", "pipe %v: unknown consumption node %q", pair, pair.Target)
		}
		top.lenPC[pair] = length
		top.lenCP[Pair{pair.Target, pair.Source}] = length
	}
	for pair, length := range config.ConsConsPipes {
		if _, ok := consumption[pair.Source]; !ok {
			return nil, configErrorf("links", "pipe %v: unknown consumption node %q", pair, pair.Source)
		}
		if _, ok := consumption[pair.Target]; !ok {
			return nil, configErrorf("links", "pipe %v: unknown consumption node %q", pair, pair.Target)
		}
		top.lenCCParallel[pair] = length
		top.lenCCReturn[Pair{pair.Target, pair.Source}] = length
	}

	return top, nil
}
