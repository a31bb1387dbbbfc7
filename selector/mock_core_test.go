// Written by hand in mockgen's output shape for
// github.com/sarchlab/streamprefetch/selector (interfaces: Core).

package selector_test

import (
	reflect "reflect"

	prefetcher "github.com/sarchlab/streamprefetch/prefetcher"
	gomock "go.uber.org/mock/gomock"
)

// MockCore is a mock of the Core interface.
type MockCore struct {
	ctrl     *gomock.Controller
	recorder *MockCoreMockRecorder
}

// MockCoreMockRecorder is the mock recorder for MockCore.
type MockCoreMockRecorder struct {
	mock *MockCore
}

// NewMockCore creates a new mock instance.
func NewMockCore(ctrl *gomock.Controller) *MockCore {
	mock := &MockCore{ctrl: ctrl}
	mock.recorder = &MockCoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCore) EXPECT() *MockCoreMockRecorder {
	return m.recorder
}

// OnAccess mocks base method.
func (m *MockCore) OnAccess(addr prefetcher.BlockNumber, ip uint64, hit, usefulPrefetch bool, accessType prefetcher.AccessType, metadataIn prefetcher.Metadata) prefetcher.Metadata {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "OnAccess", addr, ip, hit, usefulPrefetch, accessType, metadataIn)
	ret0, _ := ret[0].(prefetcher.Metadata)
	return ret0
}

// OnAccess indicates an expected call of OnAccess.
func (mr *MockCoreMockRecorder) OnAccess(addr, ip, hit, usefulPrefetch, accessType, metadataIn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnAccess", reflect.TypeOf((*MockCore)(nil).OnAccess), addr, ip, hit, usefulPrefetch, accessType, metadataIn)
}

// OnFill mocks base method.
func (m *MockCore) OnFill(addr prefetcher.BlockNumber, set, way int, wasPrefetch bool, evictedAddr prefetcher.BlockNumber, metadataIn prefetcher.Metadata) prefetcher.Metadata {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "OnFill", addr, set, way, wasPrefetch, evictedAddr, metadataIn)
	ret0, _ := ret[0].(prefetcher.Metadata)
	return ret0
}

// OnFill indicates an expected call of OnFill.
func (mr *MockCoreMockRecorder) OnFill(addr, set, way, wasPrefetch, evictedAddr, metadataIn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnFill", reflect.TypeOf((*MockCore)(nil).OnFill), addr, set, way, wasPrefetch, evictedAddr, metadataIn)
}

// OnCycle mocks base method.
func (m *MockCore) OnCycle() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnCycle")
}

// OnCycle indicates an expected call of OnCycle.
func (mr *MockCoreMockRecorder) OnCycle() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnCycle", reflect.TypeOf((*MockCore)(nil).OnCycle))
}

// FinalStats mocks base method.
func (m *MockCore) FinalStats() prefetcher.Stats {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FinalStats")
	ret0, _ := ret[0].(prefetcher.Stats)
	return ret0
}

// FinalStats indicates an expected call of FinalStats.
func (mr *MockCoreMockRecorder) FinalStats() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FinalStats", reflect.TypeOf((*MockCore)(nil).FinalStats))
}
