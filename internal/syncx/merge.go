package syncx

// Resolver decides the merged value for a key present on both sides.
// repaired reports that the result differs from the remote copy and should be
// pushed back.
type Resolver[T any] func(local, remote T) (merged T, repaired bool)

// RemoteWins keeps the remote record unchanged.
func RemoteWins[T any]() Resolver[T] {
	return func(_, remote T) (T, bool) {
		return remote, false
	}
}

// MergeResult is the outcome of Merge.
type MergeResult[T any] struct {
	// Items holds remote records (in remote order) followed by local-only
	// records (in local order).
	Items []T
	// Repaired lists merged records whose content differs from the remote copy.
	Repaired []T
	// LocalOnly lists records that exist only locally (not yet synced up).
	LocalOnly []T
}

// Merge combines local and remote as a union keyed by key: remote records are
// kept (resolved against a local twin when one exists) and every local record
// whose key is absent remotely is appended. Nothing local is dropped unless a
// remote record with the same key supersedes it. A nil resolve means
// RemoteWins. Duplicate keys within one side keep their first occurrence.
func Merge[T any, K comparable](local, remote []T, key func(T) K, resolve Resolver[T]) MergeResult[T] {
	if resolve == nil {
		resolve = RemoteWins[T]()
	}

	localByKey := make(map[K]T, len(local))
	for _, l := range local {
		k := key(l)
		if _, dup := localByKey[k]; !dup {
			localByKey[k] = l
		}
	}

	res := MergeResult[T]{Items: make([]T, 0, len(local)+len(remote))}
	seen := make(map[K]struct{}, len(remote))

	for _, r := range remote {
		k := key(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		merged := r
		if l, ok := localByKey[k]; ok {
			var repaired bool
			merged, repaired = resolve(l, r)
			if repaired {
				res.Repaired = append(res.Repaired, merged)
			}
		}
		res.Items = append(res.Items, merged)
	}

	for _, l := range local {
		k := key(l)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res.Items = append(res.Items, l)
		res.LocalOnly = append(res.LocalOnly, l)
	}

	return res
}
