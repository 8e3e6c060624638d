package synth

import (
	"github.com/lex00/wetwire-fargate-go/intrinsics"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// ContainerName is the name of the single container in the task.
const ContainerName = "app"

// TaskExecutionPolicyARN is the managed policy attached to the task role.
const TaskExecutionPolicyARN = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"

// Compute holds the nodes the alarm and outputs reference.
type Compute struct {
	Repository topology.ResourceNode
	Cluster    topology.ResourceNode
	Service    topology.ResourceNode
}

// buildRegistry declares the image repository, cluster and execution role.
func (b *builder) buildRegistry() (repo, cluster, role topology.ResourceNode) {
	cfg := b.cfg

	repo = b.add(topology.ResourceNode{
		Kind: topology.KindECRRepository,
		ID:   "appRepo",
		Attributes: map[string]any{
			"name":                 cfg.RepoName,
			"image_tag_mutability": "MUTABLE",
			"image_scanning_configuration": map[string]any{
				"scan_on_push": true,
			},
		},
		Tags: b.tagged(cfg.RepoName),
	})

	cluster = b.add(topology.ResourceNode{
		Kind:       topology.KindECSCluster,
		ID:         "ecsCluster",
		Attributes: map[string]any{"name": cfg.ClusterName},
		Tags:       b.tagged(cfg.ClusterName),
	})

	roleName := cfg.ClusterName + "-ecs-task-execution-role"
	role = b.add(topology.ResourceNode{
		Kind: topology.KindIAMRole,
		ID:   "ecsTaskRole",
		Attributes: map[string]any{
			"name":               roleName,
			"assume_role_policy": topology.Document{Value: intrinsics.AssumeRolePolicy("ecs-tasks.amazonaws.com")},
		},
		Tags: b.tagged(roleName),
	})

	b.add(topology.ResourceNode{
		Kind: topology.KindIAMRolePolicyAttachment,
		ID:   "ecsTaskPolicyAttach",
		Attributes: map[string]any{
			"role":       role.Ref("name"),
			"policy_arn": TaskExecutionPolicyARN,
		},
	})
	return repo, cluster, role
}

// buildWorkload declares the task definition and the service. The log group
// must already be declared.
func (b *builder) buildWorkload(net Network, sgs SecurityGroups, edge Edge, role, cluster, logGroup topology.ResourceNode) topology.ResourceNode {
	cfg := b.cfg

	container := map[string]any{
		"name":      ContainerName,
		"image":     cfg.ImageURI(),
		"essential": true,
		"portMappings": []any{map[string]any{
			"containerPort": cfg.ContainerPort,
			"hostPort":      cfg.ContainerPort,
			"protocol":      "tcp",
		}},
		"logConfiguration": map[string]any{
			"logDriver": "awslogs",
			"options": map[string]any{
				"awslogs-group":         logGroup.Ref("name"),
				"awslogs-region":        cfg.Region,
				"awslogs-stream-prefix": "ecs",
			},
		},
	}

	taskDef := b.add(topology.ResourceNode{
		Kind: topology.KindTaskDefinition,
		ID:   "ecsTaskDef",
		Attributes: map[string]any{
			"family":                   cfg.ClusterName + "-task",
			"requires_compatibilities": []any{"FARGATE"},
			"network_mode":             "awsvpc",
			"cpu":                      cfg.CPU,
			"memory":                   cfg.Memory,
			"execution_role_arn":       role.Ref("arn"),
			"container_definitions":    topology.Document{Value: []any{container}},
		},
		Tags: b.tagged(cfg.ClusterName + "-task"),
	})

	dependsOn := []string{edge.ALB.ID, edge.TargetGroup.ID}
	dependsOn = append(dependsOn, edge.Listeners...)
	dependsOn = append(dependsOn, taskDef.ID)

	service := b.add(topology.ResourceNode{
		Kind: topology.KindECSService,
		ID:   "ecsService",
		Attributes: map[string]any{
			"name":            cfg.ServiceName(),
			"cluster":         cluster.Ref("id"),
			"task_definition": taskDef.Ref("arn"),
			"desired_count":   cfg.DesiredTasks,
			"launch_type":     "FARGATE",
			"network_configuration": map[string]any{
				"subnets":          refSlice(net.PrivateSubnets),
				"security_groups":  []any{sgs.ECS},
				"assign_public_ip": false,
			},
			"load_balancer": []any{map[string]any{
				"target_group_arn": edge.TargetGroup.Ref("arn"),
				"container_name":   ContainerName,
				"container_port":   cfg.ContainerPort,
			}},
		},
		Tags:      b.tagged(cfg.ServiceName()),
		DependsOn: dependsOn,
	})

	b.log.Debug("workload declared", "image", cfg.ImageURI(), "desired", cfg.DesiredTasks)
	return service
}
