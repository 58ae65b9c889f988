// Package privilege propagates privilege state over a call graph and reports
// privilege-separation findings.
//
// Effective privilege at a function is its own classification OR the
// privilege inherited from the path that reached it; once held, it is never
// dropped along a path. Every traversed edge is classified by a Detector:
//
//   - Violation: an unprivileged caller reaches a privileged callee through a
//     call that is not inside an elevated region.
//   - Warning: an already privileged caller reaches a privileged callee through
//     a call that is not marked elevated. Privilege is held, but the call site
//     cannot be told apart from a boundary crossing by inspection.
//
// Findings are de-duplicated per run by caller, callee and normalized path
// content, and kept in first-discovered order.
//
// # Strategies
//
// StrategySingleVisit expands each function once, under the privilege state of
// the first path that reaches it. StrategyExhaustive enumerates every cycle-free
// path. Both agree on acyclic graphs where no function has more than one
// caller; on graphs where a function is reachable both with and without
// privilege, single-visit may under-report.
package privilege
