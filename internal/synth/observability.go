package synth

import (
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Alarm settings.
const (
	AlarmThreshold         = 80
	AlarmEvaluationPeriods = 2
	AlarmPeriodSeconds     = 300
)

func (b *builder) buildLogGroup() topology.ResourceNode {
	name := "/ecs/" + b.cfg.ClusterName
	return b.add(topology.ResourceNode{
		Kind: topology.KindLogGroup,
		ID:   "ecsLogGroup",
		Attributes: map[string]any{
			"name":              name,
			"retention_in_days": b.cfg.LogRetentionDays,
		},
		Tags: b.tagged(name),
	})
}

// buildAlarm declares the service CPU alarm. It has no actions.
func (b *builder) buildAlarm(cluster, service topology.ResourceNode) topology.ResourceNode {
	name := b.cfg.ClusterName + "-high-cpu"
	return b.add(topology.ResourceNode{
		Kind: topology.KindMetricAlarm,
		ID:   "cpuAlarm",
		Attributes: map[string]any{
			"alarm_name":          name,
			"alarm_description":   "ECS service CPU above 80% for 10 minutes",
			"namespace":           "AWS/ECS",
			"metric_name":         "CPUUtilization",
			"statistic":           "Average",
			"period":              AlarmPeriodSeconds,
			"evaluation_periods":  AlarmEvaluationPeriods,
			"threshold":           AlarmThreshold,
			"comparison_operator": "GreaterThanThreshold",
			"dimensions": map[string]any{
				"ClusterName": cluster.Ref("name"),
				"ServiceName": service.Ref("name"),
			},
		},
		Tags: b.tagged(name),
	})
}
