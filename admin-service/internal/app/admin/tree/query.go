package tree

// Flatten возвращает записи леса в порядке обхода в глубину (pre-order)
func Flatten[T Record](forest []*Node[T]) []T {
	var out []T
	var walk func(nodes []*Node[T])
	walk = func(nodes []*Node[T]) {
		for _, n := range nodes {
			out = append(out, n.Item)
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}

// DescendantIDs возвращает id узла и всех его потомков (обход в ширину по parent_id).
// Если узла нет в списке, результат пуст.
func DescendantIDs[T Record](records []T, id int64) []int64 {
	children := make(map[int64][]int64, len(records))
	exists := false
	for _, r := range records {
		if r.GetID() == id {
			exists = true
		}
		if r.GetParentID() != r.GetID() {
			children[r.GetParentID()] = append(children[r.GetParentID()], r.GetID())
		}
	}
	if !exists {
		return nil
	}

	seen := map[int64]bool{id: true}
	result := []int64{id}
	for queue := []int64{id}; len(queue) > 0; queue = queue[1:] {
		for _, child := range children[queue[0]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// WithAncestors дополняет выборку ids их предками и возвращает записи в исходном порядке.
// Подъем по родителям ограничен MaxDepth.
func WithAncestors[T Record](records []T, ids map[int64]struct{}) []T {
	byID := make(map[int64]T, len(records))
	for _, r := range records {
		byID[r.GetID()] = r
	}

	selected := make(map[int64]struct{}, len(ids))
	for id := range ids {
		current := id
		for step := 0; step <= MaxDepth; step++ {
			r, ok := byID[current]
			if !ok {
				break
			}
			if _, done := selected[current]; done {
				break
			}
			selected[current] = struct{}{}
			if r.GetParentID() == current {
				break
			}
			current = r.GetParentID()
		}
	}

	out := make([]T, 0, len(selected))
	for _, r := range records {
		if _, ok := selected[r.GetID()]; ok {
			out = append(out, r)
			delete(selected, r.GetID())
		}
	}
	return out
}
