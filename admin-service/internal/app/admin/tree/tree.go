// Package tree строит лес из плоского списка записей {id, parent_id}
// и поддерживает материализованный путь предков (ancestors) вида "0,1,5,".
package tree

import (
	"strconv"
	"strings"
)

// Separator разделяет идентификаторы в пути предков
const Separator = ","

// Record - запись иерархии, хранящая ссылку на родителя по идентификатору
type Record interface {
	GetID() int64
	GetParentID() int64
}

// Node - узел построенного дерева
type Node[T Record] struct {
	Item     T
	Path     string
	Depth    int
	Children []*Node[T]
}

// Build строит лес за O(n).
// Корнями становятся записи с parentID == rootParentID, а также сироты
// (родитель отсутствует в списке) и записи, замкнутые в цикл на битых данных.
// Порядок детей совпадает с порядком входного списка.
func Build[T Record](records []T, rootParentID int64) []*Node[T] {
	index := make(map[int64]int, len(records))
	for i, r := range records {
		if _, dup := index[r.GetID()]; !dup {
			index[r.GetID()] = i
		}
	}

	children := make(map[int64][]int, len(records))
	var roots []int
	for i, r := range records {
		if index[r.GetID()] != i {
			continue
		}
		parentID := r.GetParentID()
		_, parentKnown := index[parentID]
		if parentID == rootParentID || parentID == r.GetID() || !parentKnown {
			roots = append(roots, i)
			continue
		}
		children[parentID] = append(children[parentID], i)
	}

	visited := make([]bool, len(records))
	rootPath := RootAncestors(rootParentID)

	var attach func(i int, path string) *Node[T]
	attach = func(i int, path string) *Node[T] {
		visited[i] = true
		node := &Node[T]{
			Item:  records[i],
			Path:  path,
			Depth: Depth(path),
		}
		childPath := AncestorsFor(path, records[i].GetID())
		for _, ci := range children[records[i].GetID()] {
			if visited[ci] {
				continue
			}
			node.Children = append(node.Children, attach(ci, childPath))
		}
		return node
	}

	forest := make([]*Node[T], 0, len(roots))
	for _, i := range roots {
		forest = append(forest, attach(i, rootPath))
	}

	// Узлы, не достижимые от корней, образуют цикл: поднимаем их в корни
	for i := range records {
		if visited[i] || index[records[i].GetID()] != i {
			continue
		}
		forest = append(forest, attach(i, rootPath))
	}

	return forest
}

// RootAncestors возвращает путь предков для корневого узла
func RootAncestors(rootParentID int64) string {
	return formatID(rootParentID) + Separator
}

// AncestorsFor вычисляет путь ребенка: путь родителя + id родителя + разделитель
func AncestorsFor(parentAncestors string, parentID int64) string {
	return parentAncestors + formatID(parentID) + Separator
}

// Depth равна количеству разделителей в пути
func Depth(ancestors string) int {
	return strings.Count(ancestors, Separator)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
