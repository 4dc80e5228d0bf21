package graph

import (
	"strings"

	"visiongraph/pkg/models"
)

// Field-fallback chains for each chain stage. Each resolver is defined once
// so the chain order is testable in isolation instead of being repeated at
// every use site.

func resolveActor(d *models.Detection) string {
	if v := d.First("objectUser", "suser"); v != "" {
		return v
	}
	return models.SentinelUser
}

func resolveParent(d *models.Detection) string {
	return d.First("parentFilePath", "parentProcessName", "parentName")
}

func resolveProcess(d *models.Detection) string {
	return d.First("processFilePath", "processName")
}

func resolveObject(d *models.Detection) string {
	return d.First("objectFilePath", "objectName")
}

func resolveCommand(d *models.Detection) string {
	return d.First("objectCmd", "processCmd")
}

func resolveEndpoint(d *models.Detection) string {
	if v := d.First("endpointHostName", "hostName"); v != "" {
		return v
	}
	return models.SentinelHost
}

func resolvePrincipal(d *models.Detection) string {
	if v := d.First("principalName", "suid"); v != "" {
		return v
	}
	return models.SentinelUser
}

func resolveUserAgent(d *models.Detection) string {
	return d.First("requestClientApplication", "userAgent")
}

func resolveDestination(d *models.Detection) string {
	if v := d.First("dst", "dstIp"); v != "" {
		return v
	}
	return models.SentinelIP
}

// basename reduces a path to its final segment, accepting both separator
// styles since vendor fields mix Windows and Unix paths.
func basename(path string) string {
	path = strings.TrimRight(path, "\\/")
	if idx := strings.LastIndexAny(path, "\\/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}

// sanitizeLabel strips characters that would break the rendered graph
// grammar: double quotes become single quotes, newlines collapse to spaces.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
