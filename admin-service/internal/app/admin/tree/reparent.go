package tree

import (
	"errors"
	"fmt"
)

// MaxDepth ограничивает обход цепочки предков, чтобы битые данные не зациклили проверку
const MaxDepth = 100

var (
	ErrCyclicParent   = errors.New("cyclic parent assignment")
	ErrParentNotFound = errors.New("parent not found")
	ErrNodeNotFound   = errors.New("node not found")
	ErrDepthExceeded  = errors.New("hierarchy depth exceeded")
)

// ParentLookup возвращает parentID узла; found=false если узел не существует
type ParentLookup func(id int64) (parentID int64, found bool, err error)

// ValidateReparent проверяет назначение newParentID родителем nodeID до любых изменений.
// Поднимается по цепочке предков нового родителя не глубже MaxDepth.
func ValidateReparent(nodeID, newParentID, rootParentID int64, lookup ParentLookup) error {
	if newParentID == nodeID {
		return fmt.Errorf("%w: node %d cannot be its own parent", ErrCyclicParent, nodeID)
	}
	if newParentID == rootParentID {
		return nil
	}

	current := newParentID
	for step := 0; step < MaxDepth; step++ {
		if current == rootParentID {
			return nil
		}
		if current == nodeID {
			return fmt.Errorf("%w: node %d is an ancestor of %d", ErrCyclicParent, nodeID, newParentID)
		}

		parentID, found, err := lookup(current)
		if err != nil {
			return fmt.Errorf("failed to resolve parent of %d: %w", current, err)
		}
		if !found {
			if step == 0 {
				return fmt.Errorf("%w: %d", ErrParentNotFound, newParentID)
			}
			// Цепочка обрывается на сироте: такой узел считается корнем
			return nil
		}
		if parentID == current {
			return nil
		}
		current = parentID
	}

	return fmt.Errorf("%w: more than %d levels above %d", ErrDepthExceeded, MaxDepth, newParentID)
}

// PathChange - новый путь предков для узла
type PathChange struct {
	ID        int64
	Ancestors string
}

// Plan - результат проверки переноса узла
type Plan struct {
	NodeID      int64
	ParentID    int64
	Ancestors   string
	Descendants []PathChange
}

// PathRecord - запись, хранящая материализованный путь
type PathRecord interface {
	Record
	GetAncestors() string
}

// PlanReparent проверяет перенос и рассчитывает новые пути узла и всех его потомков.
// Ничего не изменяет: применение плана остается за хранилищем.
func PlanReparent[T PathRecord](records []T, nodeID, newParentID, rootParentID int64) (*Plan, error) {
	byID := make(map[int64]T, len(records))
	for _, r := range records {
		byID[r.GetID()] = r
	}

	if _, ok := byID[nodeID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, nodeID)
	}

	lookup := func(id int64) (int64, bool, error) {
		r, found := byID[id]
		if !found {
			return 0, false, nil
		}
		return r.GetParentID(), true, nil
	}
	if err := ValidateReparent(nodeID, newParentID, rootParentID, lookup); err != nil {
		return nil, err
	}

	newAncestors := RootAncestors(rootParentID)
	if newParentID != rootParentID {
		parent := byID[newParentID]
		newAncestors = AncestorsFor(parent.GetAncestors(), newParentID)
	}
	if Depth(newAncestors) > MaxDepth {
		return nil, fmt.Errorf("%w: more than %d levels above %d", ErrDepthExceeded, MaxDepth, nodeID)
	}

	plan := &Plan{
		NodeID:    nodeID,
		ParentID:  newParentID,
		Ancestors: newAncestors,
	}

	// Пути потомков выводятся из parent_id, сохраненные строки не используются.
	// DescendantIDs обходит в ширину: родитель обработан раньше ребенка.
	paths := map[int64]string{nodeID: newAncestors}
	for _, id := range DescendantIDs(records, nodeID) {
		if id == nodeID {
			continue
		}
		parentID := byID[id].GetParentID()
		path := AncestorsFor(paths[parentID], parentID)
		if Depth(path) > MaxDepth {
			return nil, fmt.Errorf("%w: node %d would be deeper than %d", ErrDepthExceeded, id, MaxDepth)
		}
		paths[id] = path
		plan.Descendants = append(plan.Descendants, PathChange{ID: id, Ancestors: path})
	}

	return plan, nil
}
