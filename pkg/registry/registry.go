package registry

import (
	"go-micro.dev/v5/registry"
)

// ServiceConfig 服务注册配置
type ServiceConfig struct {
	Name     string // 服务名称
	Version  string // 服务版本
	NodeID   string // 节点ID
	Address  string // 服务地址
	BasePath string // 基础路径, 网关按 /api/{BasePath}/* 代理
}

// BuildService 构建服务注册信息
func BuildService(cfg *ServiceConfig) *registry.Service {
	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = cfg.Name + "-1"
	}
	return &registry.Service{
		Name:    cfg.Name,
		Version: cfg.Version,
		Nodes: []*registry.Node{
			{
				Id:      nodeID,
				Address: cfg.Address,
				Metadata: map[string]string{
					"base_path": cfg.BasePath,
				},
			},
		},
	}
}

// BasePath 从服务元数据解析基础路径
func BasePath(svc *registry.Service) string {
	for _, node := range svc.Nodes {
		if bp, ok := node.Metadata["base_path"]; ok {
			return bp
		}
	}
	return ""
}
