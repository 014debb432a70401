package cull

// InstanceDrawCommand is one expanded per-cluster draw entry the instanced
// mode's second compute pass produces (spec §4.8 step 4: "expand LOD-instance
// counters into per-instance draw commands in a second compute pass").
type InstanceDrawCommand struct {
	ObjectID      uint32
	LodIndex      int
	ClusterIndex  uint32
	FirstIndex    uint32
	IndexCount    uint32
	InstanceCount uint32
}

// ExpandInstances turns each visible object's selected-LOD cluster range
// into one InstanceDrawCommand per cluster (spec §4.8 step 4), used by the
// instanced-culling scenes (InstancingStressTest) in place of the single
// whole-surface DrawCommand RunFrustumLod's direct path produces. When an
// object's LOD has no clusters (GenerateClusters was off for that surface)
// it falls back to one command covering the whole LOD range, so instanced
// mode still draws non-clustered surfaces correctly.
func ExpandInstances(objects []ObjectInput, results []Result) []InstanceDrawCommand {
	var out []InstanceDrawCommand
	for i, r := range results {
		if !r.Visible {
			continue
		}
		obj := objects[i]
		lod := r.LodIndex
		clusterCount := uint32(0)
		if lod < len(obj.ClusterCount) {
			clusterCount = obj.ClusterCount[lod]
		}
		if clusterCount == 0 {
			out = append(out, InstanceDrawCommand{
				ObjectID:      obj.ObjectID,
				LodIndex:      lod,
				FirstIndex:    obj.LodFirstIndex[lod],
				IndexCount:    obj.LodIndexCount[lod],
				InstanceCount: 1,
			})
			continue
		}
		for c := uint32(0); c < clusterCount; c++ {
			out = append(out, InstanceDrawCommand{
				ObjectID:      obj.ObjectID,
				LodIndex:      lod,
				ClusterIndex:  obj.ClusterOffset[lod] + c,
				InstanceCount: 1,
			})
		}
	}
	return out
}
